package server

const (
	RouteAuthLogin    = "/auth/login"
	RouteAuthCallback = "/auth/callback"
	RouteAuthLogout   = "/auth/logout"

	RouteAPIAuthVerify  = "/api/auth/verify"
	RouteAPIAuthRefresh = "/api/auth/refresh"

	RouteAPIEmail     = "/api/email"
	RouteAPICalendar  = "/api/calendar"
	RouteAPIAssistant = "/api/assistant"

	RouteAPIFaces            = "/api/faces"
	RouteAPIFaceByLabel      = "/api/faces/{label}"
	RouteAPIFacesRecognize   = "/api/faces/recognize"
	RouteAPIFaceInteractions = "/api/faces/{label}/interactions"
)
