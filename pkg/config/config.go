package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Server struct {
	ListenAddress  string   `yaml:"listenAddress"`
	TLSCertFile    string   `yaml:"tlsCertFile"`
	TLSKeyFile     string   `yaml:"tlsKeyFile"`
	TrustedProxies []string `yaml:"trustedProxies"`
}

type Mail struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SenderAddress      string `yaml:"senderAddress"`
	SenderName         string `yaml:"senderName"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	RetryCount         int    `yaml:"retryCount"`
	RetryBackoffMs     int    `yaml:"retryBackoffMs"`
	QueueSize          int    `yaml:"queueSize"`
	// SupervisorDomain is appended to bare supervisor ids to form a mail
	// address for the personal fan-out (e.g. "sup-telehealth-001@care.example").
	SupervisorDomain string `yaml:"supervisorDomain"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	// GeneralTopic receives validation/queue/status notifications.
	GeneralTopic string `yaml:"generalTopic"`
	// EmergencyTopic receives emergency and escalation notifications.
	EmergencyTopic string `yaml:"emergencyTopic"`
	WriteTimeoutMs int    `yaml:"writeTimeoutMs"`
	BatchTimeoutMs int    `yaml:"batchTimeoutMs"`
}

// LevelPolicy is the roster and timeout for one escalation level.
type LevelPolicy struct {
	Supervisors    []string `yaml:"supervisors"`
	TimeoutMinutes int      `yaml:"timeoutMinutes"`
}

// SeverityPolicy is the fan-out and response target for one emergency
// severity tier. SupervisorCount selects a prefix of EmergencyRoster.
type SeverityPolicy struct {
	SupervisorCount int `yaml:"supervisorCount"`
	ResponseMinutes int `yaml:"responseMinutes"`
}

// Policy holds the externally supplied decision tables: escalation rosters
// and timeouts per level, wait-time budgets per urgency, emergency fan-out
// per severity, and the critical-symptom keyword list. The shape is fixed by
// the workflow engine; the content is deployment configuration.
type Policy struct {
	EscalationLevels map[string]LevelPolicy    `yaml:"escalationLevels"`
	MaxWaitMinutes   map[string]int            `yaml:"maxWaitMinutes"`
	DefaultWait      int                       `yaml:"defaultWaitMinutes"`
	EmergencyRoster  []string                  `yaml:"emergencyRoster"`
	Severities       map[string]SeverityPolicy `yaml:"severities"`
	CriticalKeywords []string                  `yaml:"criticalKeywords"`
	// SweepIntervalSeconds controls the escalation timeout sweep cadence.
	// Must stay below the smallest configured level timeout.
	SweepIntervalSeconds int `yaml:"sweepIntervalSeconds"`
	// EmbeddedEscalationStorage stores protocol records as a list on the
	// episode instead of the dedicated table (fallback storage model).
	EmbeddedEscalationStorage bool `yaml:"embeddedEscalationStorage"`
}

type Config struct {
	Server Server `yaml:"server"`
	Mail   Mail   `yaml:"mail"`
	Kafka  Kafka  `yaml:"kafka"`
	Policy Policy `yaml:"policy"`
	Debug  bool   `yaml:"debug"`
}

// ApplyDefaults fills any policy table entry the config file left out with
// the stock tables. Existing entries are never overwritten.
func (p *Policy) ApplyDefaults() {
	if p.EscalationLevels == nil {
		p.EscalationLevels = map[string]LevelPolicy{}
	}
	defaults := map[string]LevelPolicy{
		"level-1":  {Supervisors: []string{"sup-telehealth-001"}, TimeoutMinutes: 10},
		"level-2":  {Supervisors: []string{"sup-telehealth-001", "sup-clinical-lead-001"}, TimeoutMinutes: 15},
		"level-3":  {Supervisors: []string{"sup-clinical-lead-001", "sup-medical-director-001"}, TimeoutMinutes: 20},
		"critical": {Supervisors: []string{"sup-telehealth-001", "sup-clinical-lead-001", "sup-medical-director-001"}, TimeoutMinutes: 5},
	}
	for level, lp := range defaults {
		if _, ok := p.EscalationLevels[level]; !ok {
			p.EscalationLevels[level] = lp
		}
	}
	if p.MaxWaitMinutes == nil {
		p.MaxWaitMinutes = map[string]int{}
	}
	for urgency, minutes := range map[string]int{"EMERGENCY": 5, "URGENT": 30, "ROUTINE": 120} {
		if _, ok := p.MaxWaitMinutes[urgency]; !ok {
			p.MaxWaitMinutes[urgency] = minutes
		}
	}
	if p.DefaultWait <= 0 {
		p.DefaultWait = 60
	}
	if len(p.EmergencyRoster) == 0 {
		p.EmergencyRoster = []string{"sup-telehealth-001", "sup-clinical-lead-001", "sup-medical-director-001"}
	}
	if p.Severities == nil {
		p.Severities = map[string]SeverityPolicy{}
	}
	for severity, sp := range map[string]SeverityPolicy{
		"critical": {SupervisorCount: 3, ResponseMinutes: 2},
		"high":     {SupervisorCount: 2, ResponseMinutes: 5},
		"medium":   {SupervisorCount: 1, ResponseMinutes: 10},
	} {
		if _, ok := p.Severities[severity]; !ok {
			p.Severities[severity] = sp
		}
	}
	if len(p.CriticalKeywords) == 0 {
		p.CriticalKeywords = []string{
			"chest pain",
			"difficulty breathing",
			"unconscious",
			"severe bleeding",
			"stroke",
			"heart attack",
			"seizure",
			"anaphylaxis",
		}
	}
	if p.SweepIntervalSeconds <= 0 {
		p.SweepIntervalSeconds = 60
	}
}

// Load loads the careflow configuration from a file path.
// If configPath is empty, defaults to "./config.yaml". The path can also be
// overridden via the CAREFLOW_CONFIG_PATH environment variable.
func Load(configPath ...string) (Config, error) {
	var path string

	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	} else if env := os.Getenv("CAREFLOW_CONFIG_PATH"); env != "" {
		path = env
	} else {
		path = "./config.yaml"
	}

	var config Config

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open careflow config file %s: %v", path, err)
	}

	err = yaml.Unmarshal(content, &config)
	if err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %v", path, err)
	}
	config.Policy.ApplyDefaults()
	return config, nil
}
