package answer

import (
	"fmt"

	"github.com/Jassar-muh/pharmaninja-backend/internal/domain"
)

// System instructions pin the model to the supplied context: answer from it,
// decline when it is insufficient, never fabricate.
const (
	systemEN = "You are a pharmacy course assistant. Answer the student's question " +
		"using ONLY the provided course excerpts. If the excerpts do not contain " +
		"enough information to answer, say so plainly instead of guessing. " +
		"Answer in English."

	systemAR = "أنت مساعد لطلبة كلية الصيدلة. أجب عن سؤال الطالب بالاعتماد فقط على " +
		"المقتطفات الدراسية المرفقة. إذا لم تكن المقتطفات كافية للإجابة فقل ذلك " +
		"بوضوح بدلاً من التخمين. أجب باللغة العربية."
)

const (
	userTemplateEN = "Course excerpts:\n%s\n\nQuestion: %s"
	userTemplateAR = "المقتطفات الدراسية:\n%s\n\nالسؤال: %s"
)

// Fallback templates surface the raw retrieved context when generation is
// unavailable.
const (
	fallbackEN = "The answer service is temporarily unavailable. " +
		"Here are the most relevant course excerpts:\n\n%s"
	fallbackAR = "خدمة الإجابة غير متاحة مؤقتاً. هذه أكثر المقتطفات الدراسية صلة بسؤالك:\n\n%s"
)

const (
	noContextEN = "I could not find relevant course material for this question. " +
		"Try rephrasing it or narrowing it to a specific subject."
	noContextAR = "لم أجد مادة دراسية ذات صلة بهذا السؤال. حاول إعادة صياغته أو تحديد المادة الدراسية."
)

// buildPrompt selects the system instruction and renders the user turn for
// the given language.
func buildPrompt(lang domain.Lang, question, contextText string) (system, user string) {
	if lang == domain.LangAR {
		return systemAR, fmt.Sprintf(userTemplateAR, contextText, question)
	}
	return systemEN, fmt.Sprintf(userTemplateEN, contextText, question)
}

// fallbackAnswer renders the context-only degradation answer.
func fallbackAnswer(lang domain.Lang, contextText string) string {
	if lang == domain.LangAR {
		return fmt.Sprintf(fallbackAR, contextText)
	}
	return fmt.Sprintf(fallbackEN, contextText)
}

// noContextAnswer renders the localized no-material message.
func noContextAnswer(lang domain.Lang) string {
	if lang == domain.LangAR {
		return noContextAR
	}
	return noContextEN
}
