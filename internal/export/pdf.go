/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"transcribeer/internal/domain"
)

// PDFOptions controls PDF export. Units are points.
type PDFOptions struct {
	Title      string
	WithBreaks bool
	FontSize   float64 // default 11
	Margin     float64 // default 56 (about 2cm)
}

// PDF renders the transcript paragraphs onto A4 pages with the built-in Helvetica font.
// Text outside cp1252 is transliterated by gofpdf's translator and may degrade to '?'.
func PDF(w io.Writer, segs []domain.Segment, opt PDFOptions) error {
	size := opt.FontSize
	if size <= 0 {
		size = 11
	}
	margin := opt.Margin
	if margin <= 0 {
		margin = 56
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 595.28, Ht: 841.89}})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := strings.TrimSpace(opt.Title)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("Transcribeer", false)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", size+5)
		pdf.MultiCell(0, (size+5)*1.4, tr(title), "", "L", false)
		pdf.Ln(size)
	}
	pdf.SetFont("Helvetica", "", size)
	lh := size * 1.4
	if opt.WithBreaks {
		for _, p := range Paragraphs(segs) {
			pdf.MultiCell(0, lh, tr(p), "", "L", false)
			pdf.Ln(size * 0.6)
		}
	} else {
		pdf.MultiCell(0, lh, tr(strings.Join(domain.Labels(segs), " ")), "", "L", false)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
