// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import "codeberg.org/oliverandrich/electobot/internal/models"

// Entitlement returns how many votes a voter controls: one for themselves and
// one per proxy. A missing voter controls no votes.
func Entitlement(voter *models.Voter, proxies int) int {
	if voter == nil {
		return 0
	}
	return 1 + proxies
}
