package types

import (
	"fmt"
	"strings"
)

// Tier is an account plan that determines the daily lead cap.
type Tier string

// Tier constants
const (
	TierFree       Tier = "free"
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

// Tiers lists every known tier in ascending order.
var Tiers = []Tier{TierFree, TierStarter, TierPro, TierEnterprise}

// ParseTier converts a string into a Tier. An empty string means free.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TierFree, nil
	}
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q (want one of free, starter, pro, enterprise)", s)
}

// QuotaState is the usage counter of one account for one calendar day.
type QuotaState struct {
	Date  string `json:"date"` // 2006-01-02, local time
	Count int    `json:"count"`
	Tier  Tier   `json:"tier"`
}
