package assess

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/linnemanlabs/firstline/internal/tools"
	"github.com/linnemanlabs/firstline/internal/triage"
)

// OfflineExplanation is shown whenever any remote call failed. It is the
// same in every language.
const OfflineExplanation = "Local safety engine active. The priority above was computed on this device from the vital signs in your message. Follow the steps below and contact emergency services if the condition worsens."

// unsafeWording matches prose that diagnoses, prescribes or predicts an
// outcome. Remote text containing it is discarded.
var unsafeWording = regexp.MustCompile(`(?i)(?:\bpatient has\b|\bdiagnos|\bdisease|\bcondition of\b|\bsuffering from\b|\binfected with\b|\bcontract(?:ed|s)?\b|\bprescri|\bmedication|\bdrugs?\b|\bantibiotic|\boxygen therapy\b|\bicu\b|\bdischarge|\bmortality\b|\bwill die\b|\bwill survive\b|\bprognos)`)

// screen rejects explanations that are empty or cross into diagnosis or
// treatment.
func screen(e *tools.Explanation) error {
	if e == nil || strings.TrimSpace(e.Explanation) == "" || strings.TrimSpace(e.FirstAidSteps) == "" {
		return fmt.Errorf("%w: explanation is empty", ErrMalformedResponse)
	}
	for _, s := range []string{e.Explanation, e.FirstAidSteps} {
		if m := unsafeWording.FindString(s); m != "" {
			return fmt.Errorf("%w: contains %q", ErrUnsafeContent, strings.ToLower(m))
		}
	}
	return nil
}

var firstAid = map[triage.Priority]string{
	triage.PriorityCritical: `1. Call emergency services now.
2. Keep the person lying down, or sitting up if breathing is hard.
3. If they are unresponsive and breathing, turn them on their side.
4. Loosen tight clothing and keep the airway clear.
5. Stay with them and watch their breathing until help arrives.`,
	triage.PriorityUrgent: `1. Arrange transport to a hospital within 30 minutes.
2. Keep the person resting in a comfortable position.
3. Recheck breathing, pulse and alertness every few minutes.
4. Call emergency services if they become drowsy, confused or short of breath.`,
	triage.PriorityStable: `1. Let the person rest and drink water if they can swallow safely.
2. Recheck the vital signs in 30 minutes.
3. Seek care if new symptoms appear or readings get worse.`,
}

// FirstAidSteps returns the generic steps for p. Unknown priorities get the
// critical steps.
func FirstAidSteps(p triage.Priority) string {
	if s, ok := firstAid[p]; ok {
		return s
	}
	return firstAid[triage.PriorityCritical]
}
