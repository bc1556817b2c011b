package registry

import "mercator-hq/callisto/pkg/evidence"

// Framework names used by the built-in catalogs.
const (
	FrameworkGDPR = "gdpr"
	FrameworkSOC2 = "soc2"
)

// GDPR control identifiers.
const (
	GDPRArt15  = "Art.15"     // Right of Access
	GDPRArt17  = "Art.17"     // Right to Erasure
	GDPRArt51f = "Art.5(1)(f)" // Integrity and Confidentiality
	GDPRArt32  = "Art.32"     // Security of Processing
)

// SOC 2 control identifiers.
const (
	SOC2CC61 = "CC6.1" // Logical Access Controls
	SOC2CC66 = "CC6.6" // Logical and Physical Access Controls
	SOC2CC68 = "CC6.8" // Change Management
	SOC2CC72 = "CC7.2" // System Monitoring
)

// BuiltinControls returns the built-in GDPR and SOC 2 control catalog.
// Deployments with their own catalog files can disable the built-ins and
// register catalogs exclusively from configuration.
func BuiltinControls() []evidence.ControlDescriptor {
	return []evidence.ControlDescriptor{
		{
			Framework: FrameworkGDPR,
			ID:        GDPRArt15,
			Title:     "Right of Access",
			Citation:  "Regulation (EU) 2016/679, Article 15",
		},
		{
			Framework: FrameworkGDPR,
			ID:        GDPRArt17,
			Title:     "Right to Erasure",
			Citation:  "Regulation (EU) 2016/679, Article 17",
		},
		{
			Framework: FrameworkGDPR,
			ID:        GDPRArt51f,
			Title:     "Integrity and Confidentiality",
			Citation:  "Regulation (EU) 2016/679, Article 5(1)(f)",
		},
		{
			Framework: FrameworkGDPR,
			ID:        GDPRArt32,
			Title:     "Security of Processing",
			Citation:  "Regulation (EU) 2016/679, Article 32",
		},
		{
			Framework: FrameworkSOC2,
			ID:        SOC2CC61,
			Title:     "Logical Access Controls",
			Citation:  "AICPA Trust Services Criteria, CC6.1",
		},
		{
			Framework: FrameworkSOC2,
			ID:        SOC2CC66,
			Title:     "Logical and Physical Access Controls",
			Citation:  "AICPA Trust Services Criteria, CC6.6",
		},
		{
			Framework: FrameworkSOC2,
			ID:        SOC2CC68,
			Title:     "Change Management",
			Citation:  "AICPA Trust Services Criteria, CC6.8",
		},
		{
			Framework: FrameworkSOC2,
			ID:        SOC2CC72,
			Title:     "System Monitoring",
			Citation:  "AICPA Trust Services Criteria, CC7.2",
		},
	}
}
