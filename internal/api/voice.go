package api

import (
	"net/http"
)

type resolveRequest struct {
	Transcript string `json:"transcript" validate:"required,max=1000"`
}

type speakRequest struct {
	Text  string `json:"text" validate:"required,max=1000"`
	Voice string `json:"voice" validate:"max=64"`
}

// handleListVoiceCommands returns the registered voice commands,
// optionally filtered by ?category=.
func (s *Server) handleListVoiceCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := s.voice.Commands(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.writeServiceError(w, err, "failed to list voice commands")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": cmds, "count": len(cmds)})
}

// handleResolveVoice matches a transcript against the voice commands.
func (s *Server) handleResolveVoice(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	match, err := s.voice.Resolve(r.Context(), req.Transcript)
	if err != nil {
		s.writeServiceError(w, err, "failed to resolve voice command")
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// handleSpeak synthesizes speech through the text-to-speech function.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	audio, err := s.voice.Speak(r.Context(), bearerToken(r), req.Text, req.Voice)
	if err != nil {
		s.writeServiceError(w, err, "failed to synthesize speech")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"audio_content": audio})
}
