/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	headStyle  = lipgloss.NewStyle().Bold(true)
	idStyle    = lipgloss.NewStyle().Foreground(ac("240", "243")).Width(6).Align(lipgloss.Right)
	mutedStyle = lipgloss.NewStyle().Foreground(ac("240", "245"))
	errStyle   = lipgloss.NewStyle().Foreground(ac("160", "203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(ac("28", "78"))
)

// writeOut prints v as indented JSON with --json, otherwise text.
func writeOut(cmd *cobra.Command, app *App, v any, text string) error {
	if app.JSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(cmd.OutOrStdout(), text)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func okLine(format string, args ...any) string {
	return okStyle.Render("✓") + " " + fmt.Sprintf(format, args...)
}
