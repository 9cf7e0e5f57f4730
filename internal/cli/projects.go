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
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"transcribeer/internal/domain"
	"transcribeer/internal/editor"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsRenameCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	return cmd
}

type projectSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Segments int    `json:"segments"`
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, done, err := app.session(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()

			list := core.List()
			out := make([]projectSummary, 0, len(list))
			var b strings.Builder
			if len(list) == 0 {
				b.WriteString(mutedStyle.Render("no projects"))
			} else {
				b.WriteString(idStyle.Render("ID") + "  " + headStyle.Render("NAME") + "\n")
			}
			for _, p := range list {
				out = append(out, projectSummary{ID: p.ID, Name: p.Name, Segments: len(p.Data)})
				fmt.Fprintf(&b, "%s  %s %s\n", idStyle.Render(strconv.FormatInt(p.ID, 10)), p.Name,
					mutedStyle.Render(fmt.Sprintf("(%d segments)", len(p.Data))))
			}
			return writeOut(cmd, app, out, b.String())
		},
	}
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			core, done, err := app.session(cmd)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer done()
			p, err := openProject(cmd.Context(), core, id)
			if err != nil {
				return writeErr(cmd, err)
			}

			var b strings.Builder
			b.WriteString(headStyle.Render(p.Name) + " " + mutedStyle.Render(fmt.Sprintf("#%d", p.ID)) + "\n")
			for i, s := range p.Data {
				fmt.Fprintf(&b, "%s  %s\n", idStyle.Render(strconv.Itoa(i+1)), s.Label)
			}
			return writeOut(cmd, app, p, b.String())
		},
	}
}

func newProjectsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
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
			if err := core.Detail.Rename(cmd.Context(), id, args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, projectSummary{ID: id, Name: args[1], Segments: core.Detail.State().Total},
				okLine("renamed #%d to %q", id, args[1]))
		},
	}
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
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
			removed, err := core.Detail.RemoveProject(cmd.Context())
			if err != nil {
				return err
			}
			if !removed {
				return writeErr(cmd, errAborted)
			}
			return writeOut(cmd, app, map[string]any{"id": id, "deleted": true}, okLine("deleted #%d", id))
		},
	}
	cmd.Flags().BoolVarP(&app.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// openProject loads project id into the detail pane.
func openProject(ctx context.Context, core *editor.App, id int64) (domain.Project, error) {
	for i, p := range core.List() {
		if p.ID != id {
			continue
		}
		if err := core.SelectProject(ctx, i); err != nil {
			return domain.Project{}, err
		}
		return p, nil
	}
	return domain.Project{}, errNotFound("project", strconv.FormatInt(id, 10))
}
