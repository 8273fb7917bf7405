// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

//go:build tools
// +build tools

package main

// Keeps go.mod aware of tool-only dependencies invoked via go:generate.
import (
	_ "github.com/maxbrunsfeld/counterfeiter/v6"
)
