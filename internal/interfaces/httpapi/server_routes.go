package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("GET /healthz", handler.Health)
}

func registerQueryRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /ladder", handler.GetLadderStanding)
	mux.HandleFunc("GET /pipeline/status/{jobID}", handler.GetPipelineStatus)
	mux.HandleFunc("GET /pipeline/jobs", handler.ListPipelineJobs)
	mux.HandleFunc("GET /pipeline/endpoints", handler.ListPipelineEndpoints)
}

// Trigger routes start scraper work, so they sit behind the optional
// pipeline token.
func registerTriggerRoutes(mux *http.ServeMux, handler *Handler, triggerToken string) {
	mux.Handle("POST /pipeline/{selector}", RequireTriggerToken(triggerToken, http.HandlerFunc(handler.StartPipeline)))
	mux.Handle("POST /run-pipeline", RequireTriggerToken(triggerToken, http.HandlerFunc(handler.RunPipeline)))
	mux.Handle("POST /hooks/{hook}", RequireTriggerToken(triggerToken, http.HandlerFunc(handler.RunHook)))
}
