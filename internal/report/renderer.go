package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/fortuneatelier/fortune-backend/internal/fortune"
	"github.com/fortuneatelier/fortune-backend/pkg/db/models"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
)

const (
	fallbackFamily = "Helvetica"
	embeddedFamily = "ReportSans"
)

// Options configures a Renderer.
type Options struct {
	// FontPath points at an optional UTF-8 TrueType font. Helvetica is used when empty or unreadable.
	FontPath string
	// Clock supplies the generation timestamp. Defaults to time.Now.
	Clock  func() time.Time
	Logger *logger.Logger
}

// Renderer lays out orders and their sections as A4 PDF documents.
type Renderer struct {
	font  []byte
	clock func() time.Time
}

func NewRenderer(opts Options) *Renderer {
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	r := &Renderer{clock: clock}
	if opts.FontPath != "" {
		font, err := loadFont(opts.FontPath)
		if err != nil {
			logg.Warn(logg.WithFields(context.Background(), map[string]any{
				"font_path": opts.FontPath,
				"error":     err.Error(),
			}), "report.font_fallback")
		} else {
			r.font = font
		}
	}
	return r
}

// loadFont reads a TTF and checks that fpdf can parse it.
func loadFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	probe := fpdf.New("P", "pt", "A4", "")
	probe.AddUTF8FontFromBytes(embeddedFamily, "", data)
	if err := probe.Error(); err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return data, nil
}

// Render produces the PDF bytes for an order.
func (r *Renderer) Render(order *models.Order, sections []fortune.Section) ([]byte, error) {
	out, _, err := r.render(order, sections)
	return out, err
}

// WriteFile renders the order into dir/{orderId}.pdf and returns the public path.
func (r *Renderer) WriteFile(dir string, order *models.Order, sections []fortune.Section) (string, error) {
	out, err := r.Render(order, sections)
	if err != nil {
		return "", err
	}
	return writeArtifact(dir, order.ID, out)
}

func (r *Renderer) render(order *models.Order, sections []fortune.Section) ([]byte, int, error) {
	if order == nil {
		return nil, 0, errors.New("report: order is required")
	}
	generatedAt := r.clock()

	// The first pass only counts content pages so the footer can print the total.
	first, err := r.layout(order, sections, generatedAt, 0)
	if err != nil {
		return nil, 0, err
	}
	contentPages := first.PageCount() - 1

	doc, err := r.layout(order, sections, generatedAt, contentPages)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("report: write pdf: %w", err)
	}
	return buf.Bytes(), doc.PageCount(), nil
}

type page struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	width  float64
	height float64
}

func (r *Renderer) layout(order *models.Order, sections []fortune.Section, generatedAt time.Time, contentPages int) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin+footerReserve)
	pdf.SetTitle(coverTitle(order), true)
	pdf.SetCreator("fortune-backend", true)

	p := &page{pdf: pdf, family: fallbackFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if r.font != nil {
		pdf.AddUTF8FontFromBytes(embeddedFamily, "", r.font)
		p.family = embeddedFamily
		p.tr = func(s string) string { return s }
	}
	p.width, p.height = pdf.GetPageSize()

	pdf.SetHeaderFunc(p.paintBackground)
	pdf.SetFooterFunc(func() {
		n := pdf.PageNo()
		if n <= 1 {
			return
		}
		p.setFont(footerSize, colorMeta)
		pdf.SetXY(pageMargin, p.height-footerOffset)
		pdf.CellFormat(p.width-2*pageMargin, footerSize, fmt.Sprintf("%d / %d", n-1, contentPages), "", 0, "C", false, 0, "")
	})

	p.cover(order, generatedAt)
	for i, section := range sections {
		p.section(section)
		if i == len(sections)-1 {
			p.disclaimer()
		}
	}
	if len(sections) == 0 {
		pdf.AddPage()
		p.disclaimer()
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("report: layout: %w", err)
	}
	return pdf, nil
}

func (p *page) setFont(size float64, c rgb) {
	p.pdf.SetFont(p.family, "", size)
	p.pdf.SetTextColor(c.r, c.g, c.b)
}

func (p *page) paintBackground() {
	pdf := p.pdf
	pdf.LinearGradient(0, 0, p.width, p.height,
		colorBandStart.r, colorBandStart.g, colorBandStart.b,
		colorBandEnd.r, colorBandEnd.g, colorBandEnd.b,
		0, 0, 1, 1)

	pdf.SetAlpha(cardOpacity, "Normal")
	pdf.SetFillColor(colorCard.r, colorCard.g, colorCard.b)
	pdf.RoundedRect(cardInset, cardInset, p.width-2*cardInset, p.height-2*cardInset, cardRadius, "1234", "F")
	pdf.SetAlpha(1, "Normal")

	pdf.SetXY(pageMargin, pageMargin)
}

func (p *page) rule() {
	pdf := p.pdf
	y := pdf.GetY()
	pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	pdf.SetLineWidth(1)
	pdf.Line(pageMargin, y, p.width-pageMargin, y)
}

func (p *page) contentWidth() float64 {
	return p.width - 2*pageMargin
}

func (p *page) remaining() float64 {
	return p.height - pageMargin - footerReserve - p.pdf.GetY()
}

func (p *page) cover(order *models.Order, generatedAt time.Time) {
	pdf := p.pdf
	pdf.AddPage()

	pdf.SetY(p.height / 4)
	p.setFont(titleSize, colorTitle)
	pdf.MultiCell(p.contentWidth(), titleSize*1.4, p.tr(coverTitle(order)), "", "C", false)
	pdf.Ln(6)
	p.setFont(subtitleSize, colorMeta)
	pdf.MultiCell(p.contentWidth(), subtitleSize*1.4, p.tr(reportSubtitle), "", "C", false)
	pdf.Ln(24)

	p.rule()
	pdf.Ln(14)

	p.setFont(metaSize, colorMeta)
	meta := []string{
		"Name: " + orDash(order.Name),
		"Birthdate: " + orDash(order.Birthdate),
		"Gender: " + order.Gender.Label(),
		"Generated: " + generatedAt.Format(timestampLayout),
	}
	for _, line := range meta {
		pdf.MultiCell(p.contentWidth(), metaLineHeight, p.tr(line), "", "L", false)
	}
	pdf.Ln(10)
	p.rule()
}

func (p *page) section(s fortune.Section) {
	pdf := p.pdf
	pdf.AddPage()

	p.setFont(headingSize, colorHeading)
	pdf.MultiCell(p.contentWidth(), headingSize*1.4, p.tr(s.Title), "", "L", false)
	pdf.Ln(4)
	p.rule()
	pdf.Ln(12)

	p.setFont(bodySize, colorBody)
	for _, para := range paragraphs(s.Body) {
		if p.remaining() < paragraphBudget {
			pdf.AddPage()
			p.setFont(bodySize, colorBody)
		}
		pdf.MultiCell(p.contentWidth(), bodyLineHeight, p.tr(para), "", "L", false)
		pdf.Ln(paragraphGap)
	}
}

func (p *page) disclaimer() {
	pdf := p.pdf
	if p.remaining() < 3*bodyLineHeight {
		pdf.AddPage()
	}
	pdf.Ln(8)
	p.setFont(disclaimerSize, colorMeta)
	pdf.MultiCell(p.contentWidth(), disclaimerSize*1.5, p.tr(disclaimerText), "", "L", false)
}

func paragraphs(body string) []string {
	var out []string
	for _, part := range strings.Split(body, "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func coverTitle(order *models.Order) string {
	name := strings.TrimSpace(order.Name)
	if name == "" {
		return "Your Fortune Report"
	}
	return "Fortune Report for " + name
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func writeArtifact(dir, orderID string, pdf []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	name := orderID + ".pdf"
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("report: create temp file: %w", err)
	}
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("report: write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("report: close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("report: move file: %w", err)
	}
	return PublicPath(orderID), nil
}

// PublicPath is the site-relative URL of a locally stored report.
func PublicPath(orderID string) string {
	return "/reports/" + orderID + ".pdf"
}
