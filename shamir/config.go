// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shamir

// ShareHolder names a custodian role a share is issued to, rather than
// a bare integer index, matching the original's ShareHolder enum.
type ShareHolder string

const (
	HolderUser       ShareHolder = "user"
	HolderPlatform   ShareHolder = "platform"
	HolderArbitrator ShareHolder = "arbitrator"
	HolderRegulator  ShareHolder = "regulator"
	HolderEscrowAgent ShareHolder = "escrow_agent"
)

// Config names a (threshold, total) scheme and the ordered holder
// roles each share index is assigned to.
type Config struct {
	Threshold int
	Total     int
	Holders   []ShareHolder
}

// Standard3of5 is the default high-assurance scheme: any 3 of 5 named
// custodians can reconstruct, matching the original's
// ThresholdConfig.standard_3_of_5.
func Standard3of5() Config {
	return Config{
		Threshold: 3,
		Total:     5,
		Holders: []ShareHolder{
			HolderUser, HolderPlatform, HolderArbitrator, HolderRegulator, HolderEscrowAgent,
		},
	}
}

// Simple2of3 is a lighter-weight scheme for lower-value contexts,
// matching the original's ThresholdConfig.simple_2_of_3.
func Simple2of3() Config {
	return Config{
		Threshold: 2,
		Total:     3,
		Holders:   []ShareHolder{HolderUser, HolderPlatform, HolderArbitrator},
	}
}

// HolderForIndex returns the named role assigned to a 1-based share
// index, or "" if the config has no name for it.
func (c Config) HolderForIndex(index int) ShareHolder {
	if index < 1 || index > len(c.Holders) {
		return ""
	}
	return c.Holders[index-1]
}
