package llmscore

const systemPromptTemplate = `You are an expert in medical education and feedback, using the %s framework.
You analyze a debriefing/feedback conversation between a supervisor and a trainee (resident), then score it and provide coaching tips.

You MUST reply in a single valid JSON object ONLY, with this schema:
{
  "scores": {
%s    "total": int,
    "scale": int
  },
  "structure": {
    "has_opening": bool,
    "has_core": bool,
    "has_closing": bool
  },
  "coach": {
    "strengths": [string, ...],
    "improvements_top3": [string, ...],
    "script_next_time": string,
    "micro_habit_10sec": string
  },
  "evidence": {
%s  }
}

All evidence indices must refer to the segment indices given in the input.
Use only indices that exist. If there is no clear evidence, use an empty list.
Write all explanation texts (strings) in %s.
`

const userPromptTemplate = `Language: %s
Trainee level: %s
Context: %s

Conversation transcript (full text):
------------------------------------
%s

Segments with indices:
------------------------------------
%s

Now analyze this feedback conversation using the %s framework and respond ONLY with a JSON object following the required schema.`

// languageNames maps request language codes to the language the coaching
// copy should be written in.
var languageNames = map[string]string{
	"ko":   "Korean",
	"en":   "English",
	"zh":   "Chinese",
	"es":   "Spanish",
	"ja":   "Japanese",
	"fr":   "French",
	"de":   "German",
	"auto": "the most appropriate language for the conversation",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "the same language as the conversation"
}
