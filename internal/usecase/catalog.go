package usecase

import "cv-builder/internal/cvtemplate"

// DocumentCategory is a group of ready-made document templates.
type DocumentCategory struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Color         string `json:"color"`
	TemplateCount int    `json:"templateCount"`
}

// Feature is one entry point of the app's home screen.
type Feature struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Route       string `json:"route"`
}

type Catalog struct {
	Features    []Feature           `json:"features"`
	Categories  []DocumentCategory  `json:"categories"`
	CVTemplates []cvtemplate.Layout `json:"cvTemplates"`
	PDFTools    []string            `json:"pdfTools"`
}

var features = []Feature{
	{ID: "cv", Title: "إنشاء السيرة الذاتية", Description: "قوالب احترافية جاهزة للاستخدام", Route: "/templates"},
	{ID: "pdf", Title: "أدوات PDF", Description: "دمج، تقسيم، وتحويل ملفات PDF", Route: "/tools"},
	{ID: "docs", Title: "قوالب الوثائق", Description: "فواتير، عروض أسعار، ونماذج جاهزة", Route: "/catalog"},
}

var categories = []DocumentCategory{
	{ID: "invoice", Title: "فواتير", Description: "إنشاء فواتير احترافية", Color: "#3b82f6", TemplateCount: 10},
	{ID: "quotation", Title: "عروض أسعار", Description: "تقديم عروض أسعار للعملاء", Color: "#8b5cf6", TemplateCount: 8},
	{ID: "letters", Title: "الرسائل", Description: "رسائل رسمية وإدارية", Color: "#10b981", TemplateCount: 15},
	{ID: "contracts", Title: "عقود", Description: "عقود عمل وخدمات", Color: "#f59e0b", TemplateCount: 12},
	{ID: "forms", Title: "نماذج", Description: "نماذج طلبات وتقارير", Color: "#ec4899", TemplateCount: 20},
	{ID: "business", Title: "وثائق أعمال", Description: "خطط أعمال ومذكرات", Color: "#06b6d4", TemplateCount: 7},
}

// GetCatalog returns a fresh copy of the static catalog.
func GetCatalog() Catalog {
	return Catalog{
		Features:    append([]Feature(nil), features...),
		Categories:  append([]DocumentCategory(nil), categories...),
		CVTemplates: cvtemplate.Templates(),
		PDFTools:    []string{"merge", "split", "images", "rotate", "compress"},
	}
}

// Category looks up a document category by id.
func Category(id string) (DocumentCategory, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return DocumentCategory{}, false
}
