package extractor

import (
	"context"
	"errors"
	"strings"

	"LeadScanner/internal/domain"
	"LeadScanner/internal/ports"
)

// DefaultKnowledge is the catalog used when configuration supplies none.
func DefaultKnowledge() domain.Knowledge {
	return domain.Knowledge{
		Seller: "Northwind Solutions",
		Products: []domain.Product{
			{
				Category: "Automation",
				Name:     "Line Automation Suite",
				Keywords: []string{"factory", "plant", "manufacturing", "assembly", "warehouse", "automation", "production"},
				Pitch:    "Congratulations on the news ({headline}). {company} can bring the new capacity online faster with our line automation suite.",
				ROI:      "15-25% lower unit labour cost within 12 months",
			},
			{
				Category: "Workforce",
				Name:     "Hiring Accelerator",
				Keywords: []string{"hiring", "hires", "jobs", "workforce", "headcount", "recruit", "talent"},
				Pitch:    "{company} is growing fast ({headline}); our hiring accelerator shortens time-to-fill for technical roles.",
				ROI:      "30% shorter time-to-hire",
			},
			{
				Category: "Cloud",
				Name:     "Data Platform Migration",
				Keywords: []string{"cloud", "data center", "software", "digital", "ai", "platform", "data"},
				Pitch:    "Following \"{headline}\", we can help {company} move analytics workloads without downtime.",
				ROI:      "Up to 40% lower infrastructure spend",
			},
			{
				Category: "Finance",
				Name:     "Post-Deal Integration Advisory",
				Keywords: []string{"acquisition", "acquire", "merger", "funding", "raises", "investment", "ipo"},
				Pitch:    "After {headline}, {company} will be integrating systems and teams; our advisory keeps the first 100 days on track.",
			},
			{
				Category: "Energy",
				Name:     "Energy Efficiency Audit",
				Keywords: []string{"solar", "energy", "power", "grid", "battery", "emissions", "sustainability"},
				Pitch:    "{company}'s energy plans ({headline}) fit our efficiency audit, which typically pays for itself in the first year.",
				ROI:      "8-12% lower energy bills",
			},
		},
	}
}

// StaticProfile serves a fixed catalog.
type StaticProfile struct {
	knowledge domain.Knowledge
}

var _ ports.ProfileProvider = StaticProfile{}

// NewStaticProfile drops unnamed products and falls back to DefaultKnowledge
// when none are left.
func NewStaticProfile(k domain.Knowledge) StaticProfile {
	named := make([]domain.Product, 0, len(k.Products))
	for _, p := range k.Products {
		if strings.TrimSpace(p.Name) != "" {
			named = append(named, p)
		}
	}
	k.Products = named

	if len(k.Products) == 0 {
		seller := k.Seller
		k = DefaultKnowledge()
		if seller != "" {
			k.Seller = seller
		}
	}
	return StaticProfile{knowledge: k}
}

// Knowledge returns the catalog as configured.
func (p StaticProfile) Knowledge() domain.Knowledge {
	return p.knowledge
}

func (p StaticProfile) Profile(ctx context.Context) (domain.Knowledge, error) {
	if err := ctx.Err(); err != nil {
		return domain.Knowledge{}, err
	}
	if len(p.knowledge.Products) == 0 {
		return domain.Knowledge{}, errors.New("profile has no products")
	}
	return p.knowledge, nil
}
