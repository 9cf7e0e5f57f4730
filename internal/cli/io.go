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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"transcribeer/internal/export"
	"transcribeer/internal/projectfile"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a project file (JSON segment list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			core, done, err := app.session(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()
			// the notifier already printed the reason
			if err := core.ImportProjectFile(cmd.Context(), f); err != nil {
				return err
			}
			st := core.Detail.State()
			return writeOut(cmd, app, projectSummary{ID: st.ProjectID, Name: st.Name, Segments: st.Total},
				okLine("imported %d segments as #%d %q", st.Total, st.ProjectID, st.Name))
		},
	}
}

func newTranscribeCmd(app *App) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file into a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			core, done, err := app.session(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()
			if err := core.UploadAudio(cmd.Context(), filepath.Base(args[0]), f); err != nil {
				return err
			}
			st := core.Detail.State()
			if name = strings.TrimSpace(name); name != "" {
				if err := core.Detail.Rename(cmd.Context(), st.ProjectID, name); err != nil {
					return writeErr(cmd, err)
				}
				st = core.Detail.State()
			}
			return writeOut(cmd, app, projectSummary{ID: st.ProjectID, Name: st.Name, Segments: st.Total},
				okLine("transcribed %d segments into #%d %q", st.Total, st.ProjectID, st.Name))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name (default: \"New Project\")")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var (
		format   string
		output   string
		noBreaks bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a project as JSON, HTML or PDF",
		Example: strings.TrimSpace(`
transcribeer export 3 > project.json
transcribeer export 3 --format html --no-breaks -o transcript.html
transcribeer export 3 -o transcript.pdf
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			format, err = exportFormat(format, output)
			if err != nil {
				return writeErr(cmd, err)
			}
			core, done, err := app.session(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()
			if _, err := openProject(cmd.Context(), core, id); err != nil {
				return writeErr(cmd, err)
			}
			core.Detail.SetWithBreaks(!noBreaks)

			var write func(io.Writer) error
			switch format {
			case "json":
				write = core.Detail.DownloadAsJSON
			case "html":
				write = core.Detail.DownloadAsDocument
			case "pdf":
				write = core.Detail.DownloadAsPDF
			}
			if output == "" || output == "-" {
				return write(cmd.OutOrStdout())
			}
			if fi, err := os.Stat(output); err == nil && fi.IsDir() {
				output = filepath.Join(output, defaultExportName(format))
			}
			if err := export.WriteFile(output, write); err != nil {
				return writeErr(cmd, fmt.Errorf("export: %w", err))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), okLine("wrote %s", output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json|html|pdf (default: from the output extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default: stdout)")
	cmd.Flags().BoolVar(&noBreaks, "no-breaks", false, "Join all segments into one paragraph")
	return cmd
}

// exportFormat resolves the format flag, falling back to the output file's extension.
func exportFormat(format, output string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".html", ".htm":
			return "html", nil
		case ".pdf":
			return "pdf", nil
		default:
			return "json", nil
		}
	}
	switch format {
	case "json", "html", "pdf":
		return format, nil
	}
	return "", errUsage("unknown export format %q (want json, html or pdf)", format)
}

// defaultExportName is the file name suggested for a format.
func defaultExportName(format string) string {
	switch format {
	case "html":
		return export.HTMLFileName
	case "pdf":
		return export.PDFFileName
	}
	return projectfile.DefaultFileName
}
