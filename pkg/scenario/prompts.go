package scenario

import (
	"fmt"

	"github.com/neg-0/overwatch/pkg/models"
)

// memoPrompt is the shared framing every strategy/planning-document
// authoring call uses: formal memorandum-for-record structure with a title,
// issuing authority, effective date, and a numbered priority list, so the
// ingest pipeline's normalize stage can reliably extract PriorityEntry rows.
const memoPrompt = `Use formal memorandum-for-record structure: a clear title, issuing authority, an effective ` +
	`date, and a numbered list of priorities, each with a short objective/effect and a one-sentence description.`

func scenarioPreamble(sc *models.Scenario) string {
	return fmt.Sprintf("Scenario: %s\nTheater: %s\nAdversary: %s\nStart date: %s",
		sc.Name, sc.Theater, sc.Adversary, sc.StartDate.Format("2006-01-02"))
}

const ndsSystemPrompt = `You are a national security strategy staff officer. Write a National Defense Strategy ` +
	`(NDS) memorandum, issuing authority Secretary of Defense, with 3-5 top-level strategic priorities. ` + memoPrompt

func ndsUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the NDS memorandum establishing the strategic priorities this scenario's campaign will pursue."
}

const nmsSystemPrompt = `You are a Joint Staff strategy officer. Write a National Military Strategy (NMS) ` +
	`memorandum, issuing authority Chairman of the Joint Chiefs of Staff, tracing to the NDS's priorities with its ` +
	`own ranked military priorities. ` + memoPrompt

func nmsUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the NMS memorandum that translates the NDS into military priorities for this theater."
}

const jscpSystemPrompt = `You are a combatant command planning officer. Write a Joint Strategic Capabilities Plan ` +
	`(JSCP) memorandum, issuing authority Chairman of the Joint Chiefs of Staff, assigning planning tasks that ` +
	`trace to the NMS's priorities. ` + memoPrompt

func jscpUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the JSCP memorandum tasking the theater command to plan against this adversary."
}

const conplanSystemPrompt = `You are a theater command planning officer. Write a Concept Plan (CONPLAN) ` +
	`memorandum, issuing authority the theater combatant commander, outlining the campaign's concept of ` +
	`operations in phases. ` + memoPrompt

func conplanUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the CONPLAN memorandum outlining the phased concept of operations for this campaign."
}

const oplanSystemPrompt = `You are a theater command planning officer. Write an Operations Plan (OPLAN) ` +
	`memorandum, issuing authority the theater combatant commander, detailing the executable campaign plan that ` +
	`refines the CONPLAN's concept into concrete priorities. ` + memoPrompt

func oplanUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the OPLAN memorandum refining the CONPLAN into an executable campaign plan."
}

const jiptlSystemPrompt = `You are a joint targeting staff officer. Write a Joint Integrated Prioritized Target ` +
	`List (JIPTL) memorandum tracing to the current strategy cascade, ranking target effects for the opening ` +
	`phase of the campaign. ` + memoPrompt

func jiptlUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the JIPTL memorandum prioritizing targets and effects for the opening phase of this campaign."
}

const maapSystemPrompt = `You are an air operations planning staff officer. Write a Master Air Attack Plan (MAAP) ` +
	`memorandum for Air Tasking Order day 1, assigning mission packages against the current JIPTL's prioritized ` +
	`targets. ` + memoPrompt

func maapUserPrompt(sc *models.Scenario) string {
	return scenarioPreamble(sc) + "\n\nWrite the day-1 MAAP memorandum translating the JIPTL's priorities into air mission packages."
}

const mselInjectsSystemPrompt = `You are a scenario control cell writer. Write a Master Scenario Events List ` +
	`(MSEL) as a numbered list of injects. Each entry must include a date-time-group in the form DDHHMMZ MON YY, ` +
	`a title, a one-sentence description, its operational impact, and an inject type (one of FRICTION, INTEL, ` +
	`CRISIS, SPACE, INFORMATION, ACTION, DECISION_POINT, CONTINGENCY).`

func mselInjectsUserPrompt(sc *models.Scenario) string {
	days := scenarioDurationDays(sc)
	return fmt.Sprintf("%s\nDuration: %d days\n\nWrite 5-10 MSEL injects spread across the scenario's duration, each dated relative to the start date.",
		scenarioPreamble(sc), days)
}
