package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

const interviewerRules = `Rules:
- Sound natural and conversational, like a real person. Occasional filler words ("hmm", "so", "alright") are fine.
- Ask exactly one clear question at a time. No hints and no answers.
- Match the %[1]s level: easy means fundamentals, medium means situational or applied detail, hard means advanced scenarios and trade-offs.
- Welcome the candidate only once, at the start of the interview.
- If there is conversation history, continue from where it left off and follow up on previous answers.
`

// persona describes what each interviewer focuses on.
var persona = map[domain.InterviewDomain]struct{ role, focus string }{
	domain.DomainHR: {
		role:  "HR interviewer conducting a behavioral interview",
		focus: "leadership, teamwork, conflict handling, communication, motivation and work ethics",
	},
	domain.DomainDataScience: {
		role:  "data scientist interviewer conducting a technical interview",
		focus: "statistics, machine learning algorithms, data preparation, model evaluation and business impact",
	},
	domain.DomainWebDev: {
		role:  "web developer interviewer conducting a technical interview",
		focus: "frontend frameworks, backend APIs, databases, performance, security and tooling",
	},
	domain.DomainFullTechnical: {
		role:  "technical interviewer conducting a comprehensive technical interview",
		focus: "algorithms, data structures, system design, databases, code quality and testing",
	},
}

func personaFor(d domain.InterviewDomain) (role, focus string) {
	if p, ok := persona[d]; ok {
		return p.role, p.focus
	}
	return fmt.Sprintf("interviewer conducting a %s interview", d), fmt.Sprintf("the core skills of the %s domain", d)
}

// interviewerPrompt builds the system prompt that makes the model ask the
// next question. A non-empty resume selects the resume-based variant.
func interviewerPrompt(d domain.InterviewDomain, difficulty, username, resume, history string) string {
	role, focus := personaFor(d)
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional %s at %s level.\n", role, difficulty)
	if resume != "" {
		fmt.Fprintf(&b, "You have the candidate's resume. Ask questions tied to what it mentions, focusing on %s.\n", focus)
		b.WriteString("On the first question, reference something specific from the resume.\n")
	} else {
		fmt.Fprintf(&b, "Focus on %s.\n", focus)
		fmt.Fprintf(&b, "Address the candidate by name (%s) to personalise the conversation.\n", displayName(username))
	}
	fmt.Fprintf(&b, interviewerRules, difficulty)
	if resume != "" {
		fmt.Fprintf(&b, "\nRESUME CONTENT:\n%s\n", resume)
	} else {
		fmt.Fprintf(&b, "\nCANDIDATE NAME: %s\n", displayName(username))
	}
	fmt.Fprintf(&b, "DIFFICULTY LEVEL: %s\n", difficulty)
	fmt.Fprintf(&b, "\nCONVERSATION HISTORY:\n%s\n", orNone(history))
	b.WriteString("\nAsk your next question now. Reply with the question only.")
	return b.String()
}

const feedbackSystemPrompt = "You are an expert interview feedback assistant. Ensure your output is a single, valid JSON object matching the specified format."

// feedbackPrompt asks for the scored evaluation of a transcript.
func feedbackPrompt(d domain.InterviewDomain, difficulty, transcript string) string {
	_, focus := personaFor(d)
	return fmt.Sprintf(`Analyze this %s interview (%s level) between an interviewer and a candidate.
Judge technical knowledge (%s), communication skills, confidence and problem solving.
Scoring: count the meaningful question-answer exchanges, excluding greetings.
One answered question scores at most 20, two at most 30, three at most 45, four at most 60, five or more 60-100 by quality.
Deduct for vague or incorrect answers. Reward concrete examples and depth.
Return JSON only, as a single valid object.

Transcript:
%s

JSON Format:
{
  "feedback": {
    "technical_knowledge": "brief assessment",
    "communication_skills": "brief assessment",
    "confidence": "brief assessment",
    "problem_solving": "brief assessment",
    "suggestions": {
      "technical_knowledge": "how to improve",
      "communication_skills": "how to improve",
      "confidence": "how to improve",
      "problem_solving": "how to improve"
    }
  },
  "overall_score": 0-100
}`, d, difficulty, focus, transcript)
}

// studyPrompt builds the study assistant system prompt.
func studyPrompt(subject, textbook, history string) string {
	return fmt.Sprintf(`You are a study assistant for %s, using "%s" as your only reference.
Answer like a human expert in the subject, not by quoting the textbook.
Answer only questions related to the textbook; otherwise reply: "I cannot answer this question as it is not related to the textbook."
Give clear, concise answers without asking for clarification. Use simple diagrams or code when they help.
Chat History:
%s`, subject, textbook, orNone(history))
}

// dailyQuestionsPrompt asks for ten multiple-choice questions on subject.
func dailyQuestionsPrompt(subject string, recent []string, count int) string {
	list := "none"
	if len(recent) > 0 {
		list = strings.Join(recent, " | ")
	}
	return fmt.Sprintf(`You are an expert in creating daily interview questions for engineering students.
Generate %d easy to medium questions for the subject: %s.
Recent questions: %s.
Do not repeat any questions from the list.
Format each question as JSON:
{"question": "Your question text here", "option1": "Option 1", "option2": "Option 2", "option3": "Option 3", "option4": "Option 4", "answer": "option2", "subject": "subject name"}
The answer field must be the key of the correct option, one of option1, option2, option3 or option4.
Return only JSON, no extra text.`, count, subject, list)
}

// resumePrompt asks for a resume review.
func resumePrompt(text string) string {
	return fmt.Sprintf(`You are an industry-level resume evaluator for engineering and technical roles.
Analyze the resume with the standards used by top tech recruiters and report on three aspects:
1. Grammatical mistakes: a markdown bullet list ("- ") of each mistake with its correction, or "No significant grammatical issues found."
2. Suggestions: markdown with short headings and bullets on clarity, technical strength, formatting and impact.
3. ATS score: a strict, unrounded score out of 100 for applicant tracking system compatibility.
Return ONLY a valid JSON object, using \n for line breaks inside strings:
{"grammatical_mistakes": "...", "suggestions": "...", "ats_score": 85.5}

Resume:
%s`, text)
}

// renderInterviewHistory formats turns as "Interviewer:/Candidate:" pairs.
func renderInterviewHistory(turns []domain.InterviewTurn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, fmt.Sprintf("Interviewer: %s\nCandidate: %s", t.Question, t.Answer))
	}
	return out
}

// renderChatHistory formats turns as "Student:/Assistant:" pairs.
func renderChatHistory(turns []domain.ChatTurn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, fmt.Sprintf("Student: %s\nAssistant: %s", t.UserQuery, t.Reply))
	}
	return out
}

// transcript numbers the answered turns as Q1:/A1: lines.
func transcript(turns []domain.InterviewTurn) string {
	var b strings.Builder
	for i, t := range turns {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, t.Question, i+1, t.Answer)
	}
	return b.String()
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Candidate"
	}
	return name
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
