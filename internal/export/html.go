/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders a project's transcript for download: an HTML document, a PDF and
// the raw project file, written to disk atomically.
package export

import (
	"html"
	"io"
	"strings"

	"transcribeer/internal/domain"
)

// Default file names offered by the save dialogs and the CLI.
const (
	HTMLFileName = "project.html"
	PDFFileName  = "project.pdf"
)

const htmlHead = "<head>\n  <meta charset=\"UTF-8\">\n</head>\n"

// nbsp escapes label text and turns every space into a non-breaking space.
func nbsp(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), " ", "&nbsp;")
}

// Paragraphs returns the non-empty labels in order.
func Paragraphs(segs []domain.Segment) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Label != "" {
			out = append(out, s.Label)
		}
	}
	return out
}

// BuildHTML renders the transcript. With breaks every non-empty label becomes one <p>;
// without breaks all labels are joined by a single space into one unbroken line.
func BuildHTML(segs []domain.Segment, withBreaks bool) string {
	var b strings.Builder
	b.WriteString(htmlHead)
	if !withBreaks {
		b.WriteString(nbsp(strings.Join(domain.Labels(segs), " ")))
		b.WriteByte('\n')
		return b.String()
	}
	for _, p := range Paragraphs(segs) {
		b.WriteString("<p>")
		b.WriteString(nbsp(p))
		b.WriteString("</p>\n")
	}
	return b.String()
}

// HTML writes BuildHTML to w.
func HTML(w io.Writer, segs []domain.Segment, withBreaks bool) error {
	_, err := io.WriteString(w, BuildHTML(segs, withBreaks))
	return err
}
