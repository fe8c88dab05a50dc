package patterns

// GenericProviders are domain labels that never name the employer:
// personal mail, applicant-tracking vendors and bulk senders.
var GenericProviders = []string{
	// personal
	"gmail", "yahoo", "outlook", "hotmail", "icloud", "aol", "protonmail", "zoho", "mail", "live", "msn",

	// applicant tracking
	"greenhouse", "greenhouse-mail", "lever", "workday", "myworkday", "myworkdayjobs", "icims", "taleo",
	"jobvite", "smartrecruiters", "applicantstack", "bamboohr", "workable", "ashbyhq", "breezy",
	"jazz", "jazzhr", "recruiterbox", "resumator", "newton", "pinpointhq", "recruitee", "comeet",
	"fountain", "rippling", "gusto", "deel", "namely", "paychex", "adp", "paylocity", "paycom",
	"ultipro", "successfactors", "cornerstone", "ceridian", "kronos",

	// bulk senders
	"noreply", "no-reply", "donotreply", "notifications", "mailer", "sendgrid", "mailchimp",
	"mailgun", "amazonses", "postmark", "sparkpost",
}

// LocalPartProviders are applicant-tracking domains that send as
// <employer>@vendor, so the local part is worth reading.
var LocalPartProviders = []string{
	"myworkday", "myworkdayjobs", "workday", "icims", "jobvite", "smartrecruiters", "bamboohr", "recruitee",
}

// SkippedSubdomains are labels skipped while walking a sender domain.
var SkippedSubdomains = []string{"www", "mail", "email", "jobs", "careers", "recruiting", "apply", "hr", "us", "eu", "hire"}

// SenderPrefixes are local parts that describe a mailbox role, not a company.
var SenderPrefixes = []string{
	"recruiting", "recruitment", "recruiter", "talent", "careers", "career", "jobs", "job", "hr",
	"hiring", "apply", "applications", "people", "team", "noreply", "no-reply", "donotreply",
	"do-not-reply", "notifications", "notification", "info", "support", "hello",
}

// EasyApplySenders are automated apply services (address or domain) whose
// confirmations carry the employer in the text, not in the sender.
var EasyApplySenders = []string{"linkedin.com", "indeed.com", "indeedemail.com"}

// PositionKeywords gate position captures: a candidate must contain one.
var PositionKeywords = []string{
	"engineer", "developer", "manager", "designer", "analyst", "scientist", "architect",
	"specialist", "consultant", "administrator", "admin", "lead", "director", "coordinator",
	"associate", "intern", "backend", "frontend", "full stack", "fullstack", "full-stack",
	"senior", "junior", "staff", "principal", "devops", "sre", "data", "product", "software",
	"qa", "test", "security", "cloud", "platform", "infrastructure", "mobile", "ios", "android",
	"web", "ml", "machine learning", "ai", "artificial intelligence",
}

// SubjectGenericPhrases are subject captures that look like a name but are not.
var SubjectGenericPhrases = []string{
	"your application", "application received", "thank you", "application update",
	"important information", "follow up", "re", "fw", "fwd",
}

// BodyGenericPhrases are body captures that look like a name but are not.
var BodyGenericPhrases = []string{
	"us", "our team", "the team", "our company", "this position", "the role", "your application",
}

// SafetyKeywords block deletion when found anywhere in a message. Order
// matters: the first match in this order is the one reported.
var SafetyKeywords = []string{
	// interviews and scheduling
	"interview", "phone screen", "video call", "video interview", "zoom call", "teams meeting",
	"google meet", "next steps", "schedule a call", "schedule call", "schedule a meeting",
	"schedule meeting", "speak with", "meet with", "meeting", "call with", "chat with",

	// assessments
	"assessment", "technical challenge", "coding challenge", "programming challenge",
	"take-home", "take home", "homework", "project", "assignment", "test", "exercise",

	// offers
	"offer", "job offer", "offer letter", "compensation", "salary", "benefits",
	"stock options", "equity", "sign-on bonus", "signing bonus", "relocation", "start date",

	// deadlines
	"urgent", "asap", "immediately", "deadline", "respond by", "reply by", "due date", "time-sensitive",

	// account security
	"password", "account", "verify", "verification", "security", "two-factor", "2fa",
	"authenticate", "reset",

	// document requests
	"references", "background check", "documents", "upload", "submit", "provide", "send us",
}
