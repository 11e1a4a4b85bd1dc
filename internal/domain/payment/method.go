package payment

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Plugin identifies the implementation behind a payment method
type Plugin string

const (
	PluginCheck          Plugin = "check"
	PluginCOD            Plugin = "cod"
	PluginCredit         Plugin = "credit"
	PluginPayPalCheckout Plugin = "paypal_checkout"
	PluginOther          Plugin = "other"
)

// IsValid checks if the plugin is known
func (p Plugin) IsValid() bool {
	switch p {
	case PluginCheck, PluginCOD, PluginCredit, PluginPayPalCheckout, PluginOther:
		return true
	}
	return false
}

// String returns the string representation of Plugin
func (p Plugin) String() string {
	return string(p)
}

// DefaultCheckPolicy is shown to customers paying by check
const DefaultCheckPolicy = "Personal and business checks will be held for up to 10 business days to ensure payment clears before an order is shipped."

// DefaultPayPalButtonStyle is the button style used when none is configured
const DefaultPayPalButtonStyle = `{"layout":"horizontal","fundingicons":true}`

// PayPal environments
const (
	PayPalEnvSandbox    = "sandbox"
	PayPalEnvProduction = "production"
)

// PayPalFundingSources lists the funding sources the PayPal button accepts
var PayPalFundingSources = []string{
	"CARD", "CREDIT", "VENMO", "ELV", "EPS", "BANCONTACT",
	"GIROPAY", "IDEAL", "MYBANK", "P24", "SOFORT", "ZIMPLER",
}

var methodIDPattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// CheckSettings configures the check payment method
type CheckSettings struct {
	Policy        string              `json:"policy"`
	MailToName    string              `json:"name,omitempty"`
	MailToAddress valueobject.Address `json:"address"`
}

// DefaultCheckSettings returns check settings with the default policy
func DefaultCheckSettings() CheckSettings {
	return CheckSettings{Policy: DefaultCheckPolicy}
}

// PayPalSettings configures PayPal Checkout
type PayPalSettings struct {
	Env                     string   `json:"env"`
	Client                  string   `json:"client"`
	Secret                  string   `json:"secret"`
	LogRequests             bool     `json:"log_requests"`
	ButtonLocale            string   `json:"button_locale"`
	AllowedFunding          []string `json:"allowed_funding"`
	UsePayPalBillingAddress bool     `json:"use_paypal_billing_address"`
	ButtonStyle             string   `json:"button_style"`
	OverrideConfig          string   `json:"override_config"`
}

// DefaultPayPalSettings returns the PayPal defaults
func DefaultPayPalSettings() PayPalSettings {
	funding := make([]string, len(PayPalFundingSources))
	copy(funding, PayPalFundingSources)
	return PayPalSettings{
		Env:            PayPalEnvSandbox,
		ButtonLocale:   "en_US",
		AllowedFunding: funding,
		ButtonStyle:    DefaultPayPalButtonStyle,
		OverrideConfig: "{}",
	}
}

// Validate checks the PayPal settings
func (s PayPalSettings) Validate() error {
	if s.Env != PayPalEnvSandbox && s.Env != PayPalEnvProduction {
		return shared.NewDomainError("INVALID_SETTINGS", "PayPal environment must be sandbox or production")
	}
	if strings.TrimSpace(s.Client) == "" {
		return shared.NewDomainError("INVALID_SETTINGS", "PayPal client ID is required")
	}
	if strings.TrimSpace(s.Secret) == "" {
		return shared.NewDomainError("INVALID_SETTINGS", "PayPal secret is required")
	}
	allowed := make(map[string]bool, len(PayPalFundingSources))
	for _, f := range PayPalFundingSources {
		allowed[f] = true
	}
	for _, f := range s.AllowedFunding {
		if !allowed[f] {
			return shared.NewDomainError("INVALID_SETTINGS", "Unknown PayPal funding source: "+f)
		}
	}
	if !isJSONObjectOrEmpty(s.ButtonStyle) {
		return shared.NewDomainError("INVALID_SETTINGS", "Button style: You must enter valid JSON")
	}
	if !isJSONObjectOrEmpty(s.OverrideConfig) {
		return shared.NewDomainError("INVALID_SETTINGS", "Advanced configuration override: You must enter valid JSON")
	}
	return nil
}

func isJSONObjectOrEmpty(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	var obj map[string]any
	return json.Unmarshal([]byte(s), &obj) == nil
}

// Method is a configured payment method
type Method struct {
	ID        string
	Plugin    Plugin
	Label     string
	Weight    int
	Enabled   bool
	Settings  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMethod creates an enabled payment method with the plugin's default settings
func NewMethod(id string, plugin Plugin, label string) (*Method, error) {
	id = strings.TrimSpace(id)
	if !methodIDPattern.MatchString(id) {
		return nil, shared.NewDomainError("INVALID_METHOD_ID", "Machine name must contain only lowercase letters, numbers and underscores")
	}
	if !plugin.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLUGIN", "Unknown payment method type: "+string(plugin))
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, shared.NewDomainError("INVALID_LABEL", "Label cannot be empty")
	}

	now := time.Now()
	m := &Method{
		ID:        id,
		Plugin:    plugin,
		Label:     label,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch plugin {
	case PluginCheck:
		_ = m.SetCheckSettings(DefaultCheckSettings())
	case PluginPayPalCheckout:
		m.Settings, _ = json.Marshal(DefaultPayPalSettings())
	default:
		m.Settings = json.RawMessage("{}")
	}
	return m, nil
}

// Enable enables the method
func (m *Method) Enable() {
	m.Enabled = true
	m.UpdatedAt = time.Now()
}

// Disable disables the method
func (m *Method) Disable() {
	m.Enabled = false
	m.UpdatedAt = time.Now()
}

// Update changes the label and weight
func (m *Method) Update(label string, weight int) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return shared.NewDomainError("INVALID_LABEL", "Label cannot be empty")
	}
	m.Label = label
	m.Weight = weight
	m.UpdatedAt = time.Now()
	return nil
}

// SetSettings replaces the raw settings after plugin-specific validation
func (m *Method) SetSettings(raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch m.Plugin {
	case PluginCheck:
		s := DefaultCheckSettings()
		if err := json.Unmarshal(raw, &s); err != nil {
			return shared.NewDomainError("INVALID_SETTINGS", "Settings must be a JSON object")
		}
		return m.SetCheckSettings(s)
	case PluginPayPalCheckout:
		s := DefaultPayPalSettings()
		if err := json.Unmarshal(raw, &s); err != nil {
			return shared.NewDomainError("INVALID_SETTINGS", "Settings must be a JSON object")
		}
		return m.SetPayPalSettings(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return shared.NewDomainError("INVALID_SETTINGS", "Settings must be a JSON object")
	}
	m.Settings = raw
	m.UpdatedAt = time.Now()
	return nil
}

// CheckSettings decodes the check settings
func (m *Method) CheckSettings() CheckSettings {
	s := DefaultCheckSettings()
	if len(m.Settings) > 0 {
		_ = json.Unmarshal(m.Settings, &s)
	}
	if strings.TrimSpace(s.Policy) == "" {
		s.Policy = DefaultCheckPolicy
	}
	return s
}

// SetCheckSettings stores check settings
func (m *Method) SetCheckSettings(s CheckSettings) error {
	if m.Plugin != PluginCheck {
		return shared.NewDomainError("INVALID_PLUGIN", "Method is not a check payment method")
	}
	s.MailToAddress = s.MailToAddress.Normalize()
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.Settings = raw
	m.UpdatedAt = time.Now()
	return nil
}

// PayPalSettings decodes the PayPal settings
func (m *Method) PayPalSettings() PayPalSettings {
	s := DefaultPayPalSettings()
	if len(m.Settings) > 0 {
		_ = json.Unmarshal(m.Settings, &s)
	}
	return s
}

// SetPayPalSettings validates and stores PayPal settings
func (m *Method) SetPayPalSettings(s PayPalSettings) error {
	if m.Plugin != PluginPayPalCheckout {
		return shared.NewDomainError("INVALID_PLUGIN", "Method is not a PayPal Checkout method")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.Settings = raw
	m.UpdatedAt = time.Now()
	return nil
}
