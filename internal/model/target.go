package model

// TargetInput is the raw target company description supplied by the caller.
type TargetInput struct {
	Name                string `json:"name"`
	BusinessDescription string `json:"business_description"`
	URL                 string `json:"url,omitempty"`
	PrimaryIndustry     string `json:"primary_industry_classification,omitempty"`
}

// TargetProfile is the normalized target company profile produced once per
// run by the LLM normalization step. Immutable after creation.
type TargetProfile struct {
	Name             string   `json:"name"`
	ProductsServices []string `json:"target_products_services"`
	CustomerSegments []string `json:"target_customer_segments"`
	CanonicalSICs    []string `json:"canonical_sic_names,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
}

// ServiceText joins the product/service bullets into one comparison text.
func (p TargetProfile) ServiceText() string {
	return joinBullets(p.ProductsServices)
}

// SegmentText joins the customer segment bullets into one comparison text.
func (p TargetProfile) SegmentText() string {
	return joinBullets(p.CustomerSegments)
}

func joinBullets(bullets []string) string {
	out := ""
	for i, b := range bullets {
		if i > 0 {
			out += " "
		}
		out += b
	}
	return out
}
