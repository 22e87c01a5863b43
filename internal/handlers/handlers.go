package handlers

// AppHandlers bundles all HTTP handlers for route registration.
type AppHandlers struct {
	ChatHandler *ChatHandler
	FileHandler *FileHandler
}
