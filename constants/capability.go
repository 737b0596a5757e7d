package constants

// Capability names the external service an action is dispatched to.
type Capability string

const (
	CapabilityChat   Capability = "chat"
	CapabilitySpeech Capability = "speech"
	CapabilityImage  Capability = "image"
)

// Provider defaults.
const (
	DefaultChatBaseURL   = "https://api.groq.com/openai/v1"
	DefaultChatModel     = "llama-3.1-8b-instant"
	DefaultSpeechBaseURL = "https://api.deepgram.com/v1"
	DefaultVoice         = "aura-asteria-en"
	DefaultImageBaseURL  = "https://api-inference.huggingface.co/models"
	DefaultImageModel    = "stabilityai/stable-diffusion-xl-base-1.0"
	OCRLanguage          = "eng"
)

// ChatModels is the selectable chat model allow-list.
var ChatModels = []string{DefaultChatModel}

// Voices is the selectable speech voice allow-list.
var Voices = []string{"aura-asteria-en", "aura-luna-en", "aura-stella-en"}

// SpeechPrefillChars is how much of the document prefills the speech input.
const SpeechPrefillChars = 500

// OCRUnavailable is the document text used when the OCR engine is missing.
const OCRUnavailable = "OCR unavailable. Tesseract not found in this environment."
