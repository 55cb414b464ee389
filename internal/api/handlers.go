package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/krishisakhi/krishisakhi/internal/auth"
	"github.com/krishisakhi/krishisakhi/internal/core"
	"github.com/krishisakhi/krishisakhi/internal/crops"
	"github.com/krishisakhi/krishisakhi/internal/farm"
	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/krishisakhi/krishisakhi/internal/weather"
)

type APIHandler struct {
	store        *store.SQLiteStore
	conversation *core.ConversationService
	assistant    *core.AssistantService
	farm         *farm.Service
	weather      *weather.Client
	crops        *crops.Recommender
}

func NewAPIHandler(s *store.SQLiteStore, cs *core.ConversationService, as *core.AssistantService, fs *farm.Service, wc *weather.Client, cr *crops.Recommender) *APIHandler {
	return &APIHandler{
		store:        s,
		conversation: cs,
		assistant:    as,
		farm:         fs,
		weather:      wc,
		crops:        cr,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.store.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const userIDKey contextKey = "userID"

func userID(r *http.Request) int64 {
	return r.Context().Value(userIDKey).(int64)
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.store.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

type SendMessageRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id,omitempty"`
	PageContext    string `json:"page_context,omitempty"`
	Language       string `json:"language,omitempty"`
}

// SendMessageHandler posts one chat turn. An absent conversation_id creates
// the conversation; the assigned ID comes back in the response for the
// client to cache.
func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		return
	}

	result, err := h.conversation.Send(r.Context(), req.ConversationID, uid, req.Content, req.PageContext, req.Language)
	if err != nil {
		if errors.Is(err, core.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		log.Printf("Error sending message for user %d: %v", uid, err)
		http.Error(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(result)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	conversations, err := h.conversation.Conversations(uid)
	if err != nil {
		log.Printf("Error listing conversations for user %d: %v", uid, err)
		http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(conversations)
}

type ConversationDetailsResponse struct {
	*store.Conversation
	Messages []store.Message `json:"messages"`
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	conversationID := chi.URLParam(r, "conversationID")

	conv, messages, err := h.conversation.ConversationDetails(conversationID, uid)
	if err != nil {
		log.Printf("Error getting conversation %s for user %d: %v", conversationID, uid, err)
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(ConversationDetailsResponse{
		Conversation: conv,
		Messages:     messages,
	})
}
