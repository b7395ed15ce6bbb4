package server

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("GET "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("GET "+RouteAuthCallback, s.CallbackHandler())
	s.RegisterRouteFunc("GET "+RouteAuthLogout, s.LogoutHandler())

	s.RegisterRouteHandler("GET "+RouteAPIAuthVerify, ChainMiddleware(s.VerifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.AuthedAPIMiddleware()...))

	// GOOGLE DATA
	s.RegisterRouteHandler("GET "+RouteAPIEmail, ChainMiddleware(s.EmailListHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIEmail, ChainMiddleware(s.EmailSendHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPICalendar, ChainMiddleware(s.CalendarListHandler(), s.AuthedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPICalendar, ChainMiddleware(s.CalendarCreateHandler(), s.AuthedAPIMiddleware()...))

	// ASSISTANT
	s.RegisterRouteHandler("POST "+RouteAPIAssistant, ChainMiddleware(s.AssistantHandler(), s.APIMiddleware()...))

	// FACES
	s.RegisterRouteHandler("GET "+RouteAPIFaces, ChainMiddleware(s.FacesListHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIFaces, ChainMiddleware(s.FaceEnrollHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteAPIFaceByLabel, ChainMiddleware(s.FaceDeleteHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIFacesRecognize, ChainMiddleware(s.FaceRecognizeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIFaceInteractions, ChainMiddleware(s.FaceInteractionHandler(), s.APIMiddleware()...))
}
