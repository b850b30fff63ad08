package entities

const (
	DefaultClinicName  = "Hospital"
	DefaultDoctorName  = "Dr Suneo Honekawa MBBS, MD"
	DefaultContactLine = "Regn: XYZ/12345"
)

// Branding is the clinic header printed on every document.
// LogoImage holds a base64 data URL.
type Branding struct {
	ClinicName  string `json:"clinicName"`
	DoctorName  string `json:"doctorName"`
	ContactLine string `json:"contactLine"`
	LogoImage   string `json:"logoImage,omitempty"`
}

// WithDefaults fills the empty header fields.
func (b Branding) WithDefaults() Branding {
	if b.ClinicName == "" {
		b.ClinicName = DefaultClinicName
	}
	if b.DoctorName == "" {
		b.DoctorName = DefaultDoctorName
	}
	if b.ContactLine == "" {
		b.ContactLine = DefaultContactLine
	}
	return b
}
