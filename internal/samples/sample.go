// Package samples holds a fully populated CV fixture and writes it through
// every layout so the output can be inspected by eye or by tests.
package samples

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cv-builder/internal/cvtemplate"
	"cv-builder/internal/model"
	"cv-builder/pkg/logging"

	"golang.org/x/sync/errgroup"
)

const DefaultOutDir = "template-tests"

// BatchDelay separates consecutive PDF conversions in ExportPDFs.
var BatchDelay = time.Second

const sampleImage = "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=200&h=200&fit=crop"

// SampleCV returns the fixture. Every section is populated, hobbies included.
func SampleCV() model.CVData {
	img := sampleImage
	return model.CVData{
		FullName:     "Sarah Johnson",
		JobTitle:     "Senior Frontend Developer",
		Phone:        "+1 (555) 123-4567",
		Email:        "sarah.johnson@email.com",
		Address:      "San Francisco, CA, USA",
		ProfileImage: &img,
		About:        "Passionate frontend developer with 5+ years of experience creating responsive web applications using React, TypeScript, and modern CSS frameworks. Strong advocate for user experience and accessibility, with a proven track record of delivering high-quality solutions in fast-paced environments.",
		Experiences: []model.Experience{
			{
				Company:     "TechCorp Solutions",
				Position:    "Senior Frontend Developer",
				Period:      "2022 - Present",
				Location:    "San Francisco, CA",
				Description: "Lead frontend development for enterprise SaaS platform serving 10,000+ users. Architected reusable component library and improved application performance by 40%.",
			},
			{
				Company:     "InnovateWeb Agency",
				Position:    "Frontend Developer",
				Period:      "2020 - 2022",
				Location:    "Remote",
				Description: "Developed responsive websites and web applications for diverse clients. Collaborated with UX designers to implement pixel-perfect designs and ensure optimal user experience.",
			},
			{
				Company:     "StartupXYZ",
				Position:    "Junior Frontend Developer",
				Period:      "2019 - 2020",
				Location:    "San Francisco, CA",
				Description: "Built interactive user interfaces using React and Redux. Contributed to the development of a mobile-first e-commerce platform that increased conversion rates by 25%.",
			},
		},
		Education: []model.Education{
			{University: "Stanford University", Degree: "Bachelor of Science in Computer Science", Period: "2015 - 2019"},
			{University: "FreeCodeCamp", Degree: "Frontend Development Certification", Period: "2018"},
		},
		Expertise: []string{
			"React & Next.js",
			"TypeScript",
			"HTML5 & CSS3",
			"JavaScript (ES6+)",
			"Responsive Design",
			"Git & Version Control",
			"RESTful APIs",
			"Testing (Jest, Cypress)",
			"Webpack & Build Tools",
			"Figma & Design Systems",
		},
		Languages: []string{"English (Native)", "Spanish (Conversational)", "French (Basic)"},
		References: []model.Reference{
			{Name: "Michael Chen", Position: "Lead Developer at TechCorp", Phone: "+1 (555) 987-6543", Email: "m.chen@techcorp.com"},
			{Name: "Emily Rodriguez", Position: "Product Manager at InnovateWeb", Phone: "+1 (555) 456-7890", Email: "emily.r@innovateweb.com"},
		},
		IncludeHobbies: true,
		Hobbies:        []string{"Photography", "Rock Climbing", "Open Source Contributing", "UI/UX Design"},
	}
}

// HTMLName is the file name the harness uses for a layout, e.g.
// "Template_2_Modern_Test.html".
func HTMLName(l cvtemplate.Layout) string {
	return fmt.Sprintf("Template_%d_%s_Test.html", l.ID, l.Name)
}

// PDFName is e.g. "CV_Template_1_Sarah_Johnson_Test.pdf".
func PDFName(id int, fullName string) string {
	return fmt.Sprintf("CV_Template_%d_%s_Test.pdf", id, strings.Join(strings.Fields(fullName), "_"))
}

// GenerateHTML renders d through every layout into outDir and returns the
// written paths in layout order.
func GenerateHTML(ctx context.Context, d model.CVData, outDir string, opts cvtemplate.Options) ([]string, error) {
	logger := logging.FromContext(ctx)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	layouts := cvtemplate.Templates()
	paths := make([]string, len(layouts))
	g, ctx := errgroup.WithContext(ctx)
	for i, l := range layouts {
		i, l := i, l
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			html, err := cvtemplate.Render(d, l.ID, opts)
			if err != nil {
				return err
			}
			p := filepath.Join(outDir, HTMLName(l))
			if err := os.WriteFile(p, []byte(html), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", p, err)
			}
			logger.Debug("wrote sample", "template", l.Name, "path", p, "bytes", len(html))
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Renderer converts an HTML document to PDF bytes.
type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// ExportPDF converts the fixture rendered with one layout and writes it to outDir.
func ExportPDF(ctx context.Context, r Renderer, d model.CVData, id int, outDir string, opts cvtemplate.Options) (string, error) {
	l, _ := cvtemplate.Lookup(id)
	html, err := cvtemplate.Render(d, l.ID, opts)
	if err != nil {
		return "", err
	}
	pdf, err := r.RenderHTMLToPDF(ctx, html)
	if err != nil {
		return "", fmt.Errorf("template %d: %w", l.ID, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", outDir, err)
	}
	p := filepath.Join(outDir, PDFName(l.ID, d.FullName))
	if err := os.WriteFile(p, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return p, nil
}

// ExportPDFs converts ids one after another with BatchDelay between them.
// A failed item is logged and skipped; the error returned is the first one.
func ExportPDFs(ctx context.Context, r Renderer, d model.CVData, ids []int, outDir string, opts cvtemplate.Options) ([]string, error) {
	logger := logging.FromContext(ctx)
	var (
		paths    []string
		firstErr error
	)
	for i, id := range ids {
		if i > 0 && BatchDelay > 0 {
			select {
			case <-time.After(BatchDelay):
			case <-ctx.Done():
				return paths, ctx.Err()
			}
		}
		p, err := ExportPDF(ctx, r, d, id, outDir, opts)
		if err != nil {
			logger.Error("export failed", "template", id, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info("exported", "template", id, "path", p)
		paths = append(paths, p)
	}
	return paths, firstErr
}
