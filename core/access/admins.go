// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package access holds the admin set that guards privileged operations.
package access

import (
	"github.com/Qitmeer/xsubnet/core/rule"
	"github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/common"
)

// Admins is a set of admin addresses with an approval threshold. It can be
// initialized once.
type Admins struct {
	set         mapset.Set
	order       []common.Address
	threshold   int
	initialized bool
}

func NewAdmins() *Admins {
	return &Admins{set: mapset.NewThreadUnsafeSet()}
}

// Initialize installs the admin set.
func (a *Admins) Initialize(admins []common.Address, threshold int) error {
	if a.initialized {
		return rule.Error(rule.ErrAlreadyInitialized, "admins already initialized")
	}
	if threshold == 0 {
		return rule.Error(rule.ErrInvalidAdminThreshold, "admin threshold must be positive")
	}
	if threshold < 0 || threshold > len(admins) {
		return rule.Errorf(rule.ErrInvalidAdmins, "threshold %d with %d admins", threshold, len(admins))
	}
	set := mapset.NewThreadUnsafeSet()
	for _, admin := range admins {
		if admin == (common.Address{}) {
			return rule.Error(rule.ErrInvalidAdmins, "zero address admin")
		}
		if !set.Add(admin) {
			return rule.Errorf(rule.ErrDuplicateAdmin, "duplicate admin %s", admin.Hex())
		}
	}
	a.set = set
	a.order = append([]common.Address(nil), admins...)
	a.threshold = threshold
	a.initialized = true
	return nil
}

func (a *Admins) Initialized() bool {
	return a.initialized
}

func (a *Admins) IsAdmin(addr common.Address) bool {
	return a.set.Contains(addr)
}

// Require fails with NotAdmin unless addr is an admin.
func (a *Admins) Require(addr common.Address) error {
	if !a.IsAdmin(addr) {
		return rule.Errorf(rule.ErrNotAdmin, "%s is not an admin", addr.Hex())
	}
	return nil
}

func (a *Admins) Threshold() int {
	return a.threshold
}

// List returns the admins in the order they were installed.
func (a *Admins) List() []common.Address {
	return append([]common.Address(nil), a.order...)
}
