package trainingapi

import (
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"thaili/internal/corpus"
	"thaili/internal/nlu"
	"thaili/internal/training"
)

const (
	matchThreshold = 0.6
	matchLimit     = 3

	msgInfo          = "नेपाली आवाज प्रशिक्षण API"
	msgInvalidInput  = "अवैध इनपुट डेटा"
	msgTrainFailed   = "प्रशिक्षण डेटा प्रोसेसिङमा त्रुटि"
	msgTrainAccepted = "प्रशिक्षण डेटा सफलतापूर्वक प्राप्त भयो"
)

type trainRequest struct {
	Input     string `json:"input"`
	Language  string `json:"language"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

// ProcessedData is what the endpoint derived from one sample.
type ProcessedData struct {
	OriginalInput   string         `json:"original_input"`
	ProcessedInput  string         `json:"processed_input"`
	Language        string         `json:"language"`
	Timestamp       string         `json:"timestamp"`
	SessionID       string         `json:"session_id"`
	ConfidenceScore float64        `json:"confidence_score"`
	MatchedCommands []corpus.Match `json:"matched_commands"`
}

type TrainResponse struct {
	Success              bool          `json:"success"`
	Message              string        `json:"message"`
	ProcessedData        ProcessedData `json:"processed_data"`
	TotalTrainingSamples int           `json:"total_training_samples"`
}

type InfoResponse struct {
	Message            string          `json:"message"`
	AvailableEndpoints []string        `json:"available_endpoints"`
	TotalCommands      int             `json:"total_commands"`
	Commands           nlu.CommandHelp `json:"available_commands"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "commands": s.corpus.Len()})
}

func (s *Server) commands(c *gin.Context) {
	if c.Query("endpoint") == "nepali-commands" {
		c.JSON(http.StatusOK, s.corpus.Entries())
		return
	}

	c.JSON(http.StatusOK, InfoResponse{
		Message: msgInfo,
		AvailableEndpoints: []string{
			BasePath + "?endpoint=nepali-commands",
			BasePath + "/train",
		},
		TotalCommands: s.corpus.Len(),
		Commands:      nlu.AvailableCommands(),
	})
}

func (s *Server) train(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Bad training payload", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgTrainFailed})
		return
	}

	if req.Input == "" || req.Language != training.Language {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidInput})
		return
	}

	now := s.now()
	ts := req.Timestamp
	if ts == "" {
		ts = now.UTC().Format(time.RFC3339Nano)
	}

	data := ProcessedData{
		OriginalInput:   req.Input,
		ProcessedInput:  strings.ToLower(strings.TrimSpace(req.Input)),
		Language:        req.Language,
		Timestamp:       ts,
		SessionID:       req.SessionID,
		ConfidenceScore: corpus.ConfidenceFor(req.Input),
		MatchedCommands: s.corpus.FindBestMatches(req.Input, matchThreshold, matchLimit),
	}
	if data.MatchedCommands == nil {
		data.MatchedCommands = []corpus.Match{}
	}

	s.corpus.RecordUsage(req.Input, now)

	log.Info("Training sample", "input", req.Input, "session", req.SessionID,
		"confidence", data.ConfidenceScore, "matches", len(data.MatchedCommands))

	c.JSON(http.StatusOK, TrainResponse{
		Success:              true,
		Message:              msgTrainAccepted,
		ProcessedData:        data,
		TotalTrainingSamples: s.corpus.Len(),
	})
}
