package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hodiny/internal/config"
	"hodiny/internal/logger"
)

// Czech command phrasing, matched case-insensitively against the lowercased
// input. Order matters: stats and free-day phrases win over generic work verbs.
var (
	statsPatterns   = []*regexp.Regexp{regexp.MustCompile(`statistik[ay]`), regexp.MustCompile(`přehled`)}
	freeDayPatterns = []*regexp.Regexp{regexp.MustCompile(`voln[oý]`), regexp.MustCompile(`dovolen[áa]`), regexp.MustCompile(`sick\s*day`), regexp.MustCompile(`nepřítomnost`)}
	workPatterns    = []*regexp.Regexp{regexp.MustCompile(`práce`), regexp.MustCompile(`pracovní\s*dob[au]`), regexp.MustCompile(`zapiš`), regexp.MustCompile(`zaznamenej`)}

	rangeFromToRe = regexp.MustCompile(`od\s+(\d{1,2}):\d{2}\s+do\s+(\d{1,2}):\d{2}`)
	rangeDashRe   = regexp.MustCompile(`(\d{1,2}):\d{2}\s*-\s*(\d{1,2}):\d{2}`)
	lunchRe       = regexp.MustCompile(`ob[ěe]d\s+(\d+(?:[.,]\d+)?)\s*h`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2}[./]\d{1,2}[./]\d{4})\b`)
)

// VoiceCommand is the structured result of interpreting a spoken or typed
// Czech command.
type VoiceCommand struct {
	Action        string  `json:"action"`
	Date          string  `json:"date,omitempty"`
	StartTime     string  `json:"start_time,omitempty"`
	EndTime       string  `json:"end_time,omitempty"`
	LunchDuration float64 `json:"lunch_duration"`
	IsFreeDay     bool    `json:"is_free_day"`
	Employee      string  `json:"employee,omitempty"`
	TimePeriod    string  `json:"time_period,omitempty"`
	OriginalText  string  `json:"original_text"`
}

const (
	ActionRecordTime    = "record_time"
	ActionRecordFreeDay = "record_free_day"
	ActionGetStats      = "get_stats"
)

// VoiceService turns free-form Czech text into a VoiceCommand. Extraction
// is regex-first; an LLM pass refines unresolved commands when configured.
type VoiceService struct {
	registry *EmployeeRegistry
	llm      config.LLMConfig
	client   *http.Client
	limiter  *rate.Limiter

	defaultLunch float64
	now          func() time.Time
}

func NewVoiceService(registry *EmployeeRegistry, llm config.LLMConfig) *VoiceService {
	return &VoiceService{
		registry:     registry,
		llm:          llm,
		client:       &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Every(12*time.Second), 5),
		defaultLunch: 1.0,
		now:          time.Now,
	}
}

// Process interprets a command. Returns an error for empty input, an
// unrecognized action or a time entry missing its time range.
func (s *VoiceService) Process(ctx context.Context, text string) (VoiceCommand, error) {
	if strings.TrimSpace(text) == "" {
		return VoiceCommand{}, fmt.Errorf("empty command text")
	}

	cmd := s.extract(text)
	if cmd.Action == "" && s.llm.BaseURL != "" && s.llm.APIKey != "" {
		refined, err := s.refineWithLLM(ctx, text)
		if err != nil {
			logger.Warn("llm refinement failed, keeping regex result", "err", err)
		} else if refined.Action != "" {
			refined.OriginalText = text
			cmd = refined
		}
	}

	if err := validateCommand(cmd); err != nil {
		return VoiceCommand{}, err
	}
	return cmd, nil
}

func (s *VoiceService) extract(text string) VoiceCommand {
	lower := strings.ToLower(text)
	cmd := VoiceCommand{
		Action:        matchAction(lower),
		Date:          s.extractDate(lower),
		LunchDuration: s.defaultLunch,
		OriginalText:  text,
	}

	switch cmd.Action {
	case ActionRecordFreeDay:
		cmd.IsFreeDay = true
		cmd.StartTime, cmd.EndTime = "00:00", "00:00"
		cmd.LunchDuration = 0
	case ActionRecordTime:
		cmd.StartTime, cmd.EndTime = extractTimeRange(lower)
		if lunch, ok := extractLunch(lower); ok {
			cmd.LunchDuration = lunch
		}
	case ActionGetStats:
		cmd.Employee = s.matchEmployee(text)
		cmd.TimePeriod = extractPeriod(lower)
	}

	if cmd.Date == "" && (cmd.Action == ActionRecordTime || cmd.Action == ActionRecordFreeDay) {
		cmd.Date = s.now().Format("2006-01-02")
	}
	return cmd
}

func matchAction(lower string) string {
	for _, re := range statsPatterns {
		if re.MatchString(lower) {
			return ActionGetStats
		}
	}
	for _, re := range freeDayPatterns {
		if re.MatchString(lower) {
			return ActionRecordFreeDay
		}
	}
	for _, re := range workPatterns {
		if re.MatchString(lower) {
			return ActionRecordTime
		}
	}
	return ""
}

// extractTimeRange finds "od H:MM do H:MM" or "H:MM - H:MM". Minutes are
// forced to :00, matching how the crews actually dictate shifts.
func extractTimeRange(lower string) (string, string) {
	for _, re := range []*regexp.Regexp{rangeFromToRe, rangeDashRe} {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		start, end := parseHour(m[1]), parseHour(m[2])
		if start >= 0 && end >= 0 {
			return fmt.Sprintf("%02d:00", start), fmt.Sprintf("%02d:00", end)
		}
	}
	return "", ""
}

func parseHour(s string) int {
	var h int
	if _, err := fmt.Sscanf(s, "%d", &h); err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

func extractLunch(lower string) (float64, bool) {
	m := lunchRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(strings.ReplaceAll(m[1], ",", "."), "%f", &v); err != nil {
		return 0, false
	}
	if v < 0 || v > 4 {
		return 0, false
	}
	return v, true
}

func (s *VoiceService) extractDate(lower string) string {
	switch {
	case strings.Contains(lower, "dnes"):
		return s.now().Format("2006-01-02")
	case strings.Contains(lower, "včera"):
		return s.now().AddDate(0, 0, -1).Format("2006-01-02")
	case strings.Contains(lower, "zítra"):
		return s.now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	m := numericDateRe.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	for _, layout := range []string{"2.1.2006", "2/1/2006"} {
		if d, err := time.Parse(layout, m[1]); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

func (s *VoiceService) matchEmployee(text string) string {
	if s.registry == nil {
		return ""
	}
	lower := strings.ToLower(text)
	for _, emp := range s.registry.All() {
		if strings.Contains(lower, strings.ToLower(emp.Name)) {
			return emp.Name
		}
	}
	return ""
}

func extractPeriod(lower string) string {
	switch {
	case strings.Contains(lower, "týden"):
		return "week"
	case strings.Contains(lower, "měsíc"):
		return "month"
	case strings.Contains(lower, "rok"):
		return "year"
	}
	return ""
}

func validateCommand(cmd VoiceCommand) error {
	if cmd.Action == "" {
		return fmt.Errorf("unrecognized command")
	}
	if cmd.Action == ActionRecordTime && (cmd.StartTime == "" || cmd.EndTime == "") {
		return fmt.Errorf("missing start or end time")
	}
	return nil
}

const refineSystemPrompt = `Jsi asistent pro docházku stavební firmy. Z českého příkazu vytěž JSON:
{"action":"record_time|record_free_day|get_stats","date":"YYYY-MM-DD","start_time":"HH:MM","end_time":"HH:MM","lunch_duration":1.0,"is_free_day":false,"employee":"","time_period":"week|month|year"}
Nevyplněná pole vynech. Vrať pouze JSON.`

// refineWithLLM asks a chat-completions endpoint to interpret commands the
// regex layer could not. Calls are rate limited and never block.
func (s *VoiceService) refineWithLLM(ctx context.Context, text string) (VoiceCommand, error) {
	if !s.limiter.Allow() {
		return VoiceCommand{}, fmt.Errorf("llm rate limit exceeded")
	}

	body := map[string]interface{}{
		"model":  s.llm.Model,
		"stream": false,
		"messages": []map[string]string{
			{"role": "system", "content": refineSystemPrompt},
			{"role": "user", "content": text},
		},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", s.llm.BaseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return VoiceCommand{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.llm.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return VoiceCommand{}, fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return VoiceCommand{}, fmt.Errorf("llm status %d: %s", resp.StatusCode, data)
	}

	data, _ := io.ReadAll(resp.Body)
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return VoiceCommand{}, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return VoiceCommand{}, fmt.Errorf("empty choices")
	}

	var cmd VoiceCommand
	content := strings.TrimSpace(result.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")
	if err := json.Unmarshal([]byte(content), &cmd); err != nil {
		return VoiceCommand{}, fmt.Errorf("llm returned non-json: %w", err)
	}
	return cmd, nil
}
