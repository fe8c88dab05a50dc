package patterns

import (
	"regexp"

	"jobmail-engine/internal/domain"
)

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}

// SubjectCompany captures the employer from a subject line, tried in order.
var SubjectCompany = compile(
	`application to ([^-|\n]+?)(?:\s*[-|]|$)`,
	`your application at ([^-|\n]+?)(?:\s*[-|]|$)`,
	`^([^-|]+?)\s*[-|]\s*application`,
	`applying to ([^-|!\n]+?)(?:\s*[-|!]|$)`,
	`your application to ([^-|!\n]+?)(?:\s*[-|!]|$)`,
	`^([^:]+?):\s*\w`,
	`(?:update|thanks) from ([^-|\n]+?)(?:\s*[-|]|$)`,
	`was sent to ([^-|\n]+?)(?:\s*[-|]|$)`,
	`application at ([^-|\n]+?)(?:\s*[-|]|$)`,
	`\|\s*([^|\n]+?)$`,
	`^([^-|]+?)\s+application\b`,
)

// BodyCompany captures the employer from the start of a body, tried in order.
var BodyCompany = compile(
	`interest in ([^.\n,]+?)(?:[.,]|$)`,
	`welcome to ([^']+?)'s`,
	`applied to ([^.\n,]+?)(?:\s+for|[.,]|$)`,
	`([^.\n,]+?)\s+recruiting team`,
	`\bat ([^.\n,]+?)(?:[.,]|$)`,
	`applying to ([^.\n,!]+?)(?:[.,!]|$)`,
	`role at ([^.\n,]+?)(?:[.,]|$)`,
	`position at ([^.\n,]+?)(?:[.,]|$)`,
	`job at ([^.\n,]+?)(?:[.,]|$)`,
	`on behalf of ([^.\n,]+?)(?:[.,]|$)`,
	`here at ([^.\n,]+?)(?:[.,]|$)`,
	`team at ([^.\n,]+?)(?:[.,]|$)`,
)

// EasyApplySubject and EasyApplyBody read automated apply confirmations
// ("Your application was sent to Acme").
var (
	EasyApplySubject = compile(
		`application was sent to ([^-|\n]+?)(?:\s*[-|]|$)`,
		`you applied (?:to|at) ([^-|\n]+?)(?:\s*[-|]|$)`,
		`application to .+? at ([^-|\n]+?)(?:\s*[-|]|$)`,
	)
	EasyApplyBody = compile(
		`application was sent to ([^.\n,]+?)(?:[.,]|$)`,
		`applied (?:for|to) .+? at ([^.\n,·]+?)(?:\s*·|[.,]|$)`,
	)
)

// SubjectPosition is tried first, then BodyPosition.
var (
	SubjectPosition = compile(
		`application for\s+(?:the\s+)?([^-|\n]+?)(?:\s*[-|]|\s+at\s+|$)`,
		`applied for\s+(?:the\s+)?([^-|\n]+?)\s+at`,
		`^([^-]+?)\s*-\s*application`,
		`your\s+([^-|\n]+?)\s+application`,
	)
	BodyPosition = compile(
		`for the ([^.\n]+?) (?:position|role)`,
		`applied to our ([^.\n]+?) (?:position|role)`,
		`interest in (?:the )?([^.\n]+?)(?:\s+position|\s+role|[.,])`,
		`application for (?:the )?([^.\n]+?)(?:\s+position|\s+role|[.,])`,
		`application for (?:the )?([^.\n]+?)(?:\s+and|\s+at|[.,])`,
		`((?:senior|junior|staff|principal|lead|sr\.?|jr\.?)?\s*`+
			`(?:software|backend|frontend|full[-\s]?stack|devops|data|ml|ai|cloud|platform|infrastructure|site reliability|sre|mobile|ios|android|web|qa|test|security)?\s*`+
			`(?:engineer|developer|scientist|analyst|manager|designer|architect|specialist|consultant|administrator|admin|lead|director))`,
	)
)

// Cleanup rules, applied in order.
type Rewrite struct {
	Re   *regexp.Regexp
	With string
}

func rewrites(pairs ...string) []Rewrite {
	out := make([]Rewrite, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Rewrite{Re: regexp.MustCompile(`(?i)` + pairs[i]), With: pairs[i+1]})
	}
	return out
}

var CompanyCleanup = rewrites(
	`\b(?:corp|inc|llc|ltd|co|company|corporation|incorporated)\.?\s*$`, "",
	`^the\s+`, "",
	`[.,!?;:]+$`, "",
	`^["']|["']$`, "",
	`\s+`, " ",
)

var PositionCleanup = rewrites(
	`^(?:a|an|the)\s+`, "",
	`[.,!?;:]+$`, "",
	`\s+`, " ",
	`\s*\([^)]*\)\s*$`, "",
)

// DomainSuffix strips legal-entity words from a domain label.
var DomainSuffix = regexp.MustCompile(`(?i)\b(?:corp|inc|llc|ltd|co)\b`)

// Status holds the status patterns. Each pattern counts once per message.
var Status = map[domain.Status][]*regexp.Regexp{
	domain.StatusRejected: compile(
		`not moving forward`,
		`won'?t be advancing`,
		`will not be moving forward`,
		`not move forward`,
		`made the decision to not move forward`,
		`we are not moving forward`,
		`decided to move forward with other candidates`,
		`decided to pursue (?:other|different) candidates`,
		`position has been filled`,
		`role has been filled`,
		`no longer considering`,
		`not selected`,
		`not been selected`,
		`not a fit`,
		`not the right fit`,
		`after (?:careful )?consideration.*not`,
		`unfortunately.*(?:not|won't|will not)`,
		`unfortunately, we will not`,
		`unfortunately, we are not`,
		`regret to inform`,
		`sorry to inform`,
		`wish you (?:well|success|the best) (?:in|on|with) your (?:search|job search|future)`,
		`best of luck (?:in|on|with) your (?:search|job search|future)`,
		`success in your job search`,
		`good luck (?:in|on|with) your (?:search|job search)`,
		`we appreciate your (?:time|interest|application)`,
		`(?:keep|stay) in touch`,
		`reach out.*in the future`,
		`future opportunities`,
		`watch our (?:career|careers) page`,
		`encourage you to (?:watch|check|apply)`,
		`when a position opens up`,
		`consider you for future`,
		`overwhelming response`,
		`high volume of applications`,
		`many (?:exceptional|qualified|strong) (?:applications|candidates)`,
		`other candidates`,
		`moved forward with other`,
		`pursuing other candidates`,
	),
	domain.StatusOffer: compile(
		`pleased to offer`,
		`(?:we are |we're )?excited to offer`,
		`(?:we would |we'd )?like to offer`,
		`delighted to offer`,
		`happy to offer`,
		`thrilled to offer`,
		`job offer`,
		`offer letter`,
		`offer of employment`,
		`extend(?:ing)? (?:an |a )?offer`,
		`formal offer`,
		`official offer`,
		`congratulations.*(?:position|role|job|offer)`,
		`welcome to (?:the )?team`,
		`welcome aboard`,
		`accept (?:your|this|the) offer`,
		`(?:please )?sign (?:the|this|your) offer`,
		`compensation package`,
		`salary of`,
		`annual salary`,
		`base salary`,
		`starting salary`,
		`start date`,
		`your start date`,
		`onboarding`,
		`first day`,
		`benefits package`,
		`equity grant`,
		`stock options`,
		`signing bonus`,
		`sign-on bonus`,
		`relocation (?:package|assistance|bonus)`,
	),
	domain.StatusInterviewing: compile(
		`\binterview\b`,
		`phone screen`,
		`video (?:call|interview|chat)`,
		`zoom (?:call|meeting|interview)`,
		`teams (?:call|meeting|interview)`,
		`google meet`,
		`virtual interview`,
		`in-person interview`,
		`on-?site (?:interview|visit)`,
		`final round`,
		`next round`,
		`second round`,
		`technical round`,
		`next steps`,
		`schedule (?:a )?(?:call|meeting|time|interview)`,
		`speak with`,
		`meet with(?: our| the)? team`,
		`meeting with`,
		`chat with`,
		`connect with`,
		`would like to (?:meet|speak|talk|chat)`,
		`invite you to`,
		`like to invite`,
		`(?:technical|coding) (?:assessment|challenge|test|exercise)`,
		`take-?home (?:assignment|project|exercise|test)`,
		`homework assignment`,
		`coding (?:exercise|project|challenge)`,
		`skills assessment`,
		`assessment test`,
		`hiring manager`,
		`recruiter`,
		`talent (?:team|acquisition)`,
		`engineering (?:team|manager|lead)`,
		`your availability`,
		`available (?:to|for)`,
		`please (?:provide|share|send) your availability`,
		`book (?:a )?time`,
		`pick a time`,
		`calendly`,
	),
	domain.StatusApplied: compile(
		`thank you for (?:your )?(?:applying|application|interest)`,
		`thanks for applying`,
		`we.*received your application`,
		`(?:we )?received your application`,
		`application (?:has been )?(?:received|was sent|submitted)`,
		`confirm(?:ing)? (?:receipt of )?(?:your )?application`,
		`your application was sent`,
		`successfully (?:submitted|applied|received)`,
		`we will (?:review|be in touch)`,
		`our team will review`,
		`we are committed to reviewing`,
		`excited to review your application`,
		`application is (?:being|under) review`,
		`currently reviewing`,
		`reviewing (?:all |your )?application`,
		`review your (?:application|background|qualifications)`,
		`delighted that you would consider`,
		`thank you for taking the time`,
		`appreciate your interest`,
		`glad you(?:'re| are) interested`,
		`application (?:status|update)`,
		`status of your application`,
		`keep you (?:updated|informed|posted)`,
		`you will hear from us`,
		`we'll be in touch`,
		`if.*qualifications match`,
		`if.*good (?:fit|match)`,
	),
}

// StrongApplied are confirmation phrases that outweigh an incidental
// mention of interviews. Each one implies a match in Status[Applied].
var StrongApplied = compile(
	`thank you for (?:your )?(?:applying|application)`,
	`thanks for applying`,
	`received your application`,
	`application (?:has been )?(?:received|submitted)`,
	`your application was sent`,
	`successfully (?:submitted|applied)`,
)
