// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import "slices"

// AreModalitiesCompatible reports whether a client accepting clientModes can be
// served by an agent producing serverModes. An empty list on either side accepts
// everything; otherwise at least one mode must match exactly.
func AreModalitiesCompatible(serverModes, clientModes []string) bool {
	if len(clientModes) == 0 || len(serverModes) == 0 {
		return true
	}
	return slices.ContainsFunc(clientModes, func(m string) bool {
		return slices.Contains(serverModes, m)
	})
}
