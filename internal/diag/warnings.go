// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package diag

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// WarningManager collects non-fatal diagnostics over the lifetime of one
// compilation and routes them through a logging sink. Warnings never alter
// semantics: a conversion that overflows still occurs and still lowers, it
// just gets reported.
type WarningManager struct {
	log      *logrus.Logger
	warnings []string
}

// NewWarningManager builds a manager around a fresh logrus sink configured
// the way a CLI tool wants: text output, warn level, to stderr by default
// (logrus' default output).
func NewWarningManager() *WarningManager {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	return &WarningManager{log: log}
}

// NumericConversion reports the truncation/sign-change warning that fires
// when a constant is converted to a narrower or differently-signed type.
func (w *WarningManager) NumericConversion(loc Location, from, to string, value string) {
	msg := fmt.Sprintf("%s: converting %s from %s to %s may change its value", loc, value, from, to)
	w.warnings = append(w.warnings, msg)
	w.log.Warn(msg)
}

// Warnings returns every warning emitted so far, in emission order.
func (w *WarningManager) Warnings() []string {
	return w.warnings
}
