package domain

import "time"

// Roles de mensajes dentro del historial de chat.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TraitKeyUnknown marca observaciones sintéticas producidas cuando el LLM falla.
// Nunca debe llegar a un Profile; los callers la descartan por clave.
const TraitKeyUnknown = "unknown"

// TraitObservation es una inferencia puntual sobre un rasgo del usuario.
// Inmutable una vez creada: se agrega al perfil, nunca se edita.
type TraitObservation struct {
	Trait      string    `json:"trait"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Evidence   string    `json:"evidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlertType clasifica notificaciones hacia la capa web.
type AlertType string

const (
	AlertProfileUpdate AlertType = "profile_update"
)

// Alert viaja junto al ChatMessage que la produjo; no se persiste sola.
type Alert struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
}

// ChatMessage es una entrada del transcript append-only del perfil.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Alerts    []Alert   `json:"alert"`
}

// RecommendationItem es una carrera recomendada con su grupo de afinidad relativa.
// CourseFit: 1 = mejor grupo, 2 = medio, 3 = inferior.
type RecommendationItem struct {
	Course        string   `json:"course"`
	CourseFit     int      `json:"course_fit"`
	MatchedTraits []string `json:"matched_traits"`
	Reason        string   `json:"reason"`
}

// Profile es el agregado raíz: un documento por usuario.
// Las observaciones de rasgos se conservan todas (sin dedup por clave) como
// registro de auditoría; la fase se deriva escaneando la lista completa.
type Profile struct {
	UserID                 string               `json:"user_id"`
	Traits                 []TraitObservation   `json:"traits"`
	ChatHistory            []ChatMessage        `json:"chat_history"`
	CoursesRecommendation  []RecommendationItem `json:"courses_recommendation,omitempty"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// HasTrait informa si existe al menos una observación para la clave dada.
func (p *Profile) HasTrait(key string) bool {
	for _, t := range p.Traits {
		if t.Trait == key {
			return true
		}
	}
	return false
}
