package transcription

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/badoux/checkmail"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heptiolabs/healthcheck"

	"github.com/grihenrik/videotranscribe/internal/app/transcription/api"
	"github.com/grihenrik/videotranscribe/internal/pkg/batch"
	"github.com/grihenrik/videotranscribe/internal/pkg/cache"
	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/errs"
	"github.com/grihenrik/videotranscribe/internal/pkg/fingerprint"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
	"github.com/grihenrik/videotranscribe/internal/pkg/transcript"
)

type serviceMetric struct {
	transcribeResponseDur prometheus.ObserverVec
	statusResponseDur     prometheus.ObserverVec
	resultResponseSize    prometheus.ObserverVec
}

// Enqueuer submits a job for pipeline processing
type Enqueuer interface {
	Enqueue(j *job.Job)
}

// RequestSaver persists submission records
type RequestSaver interface {
	Save(data *api.RequestData) error
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Cache        *cache.JobCache
	Enqueuer     Enqueuer
	Batches      *batch.Orchestrator
	Loader       batch.ArtifactLoader
	RequestSaver RequestSaver
	WSRegistry   *WSRegistry

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

// StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

// NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	th := promhttp.InstrumentHandlerDuration(data.metrics.transcribeResponseDur, transcribeHandler{data: data})
	sh := promhttp.InstrumentHandlerDuration(data.metrics.statusResponseDur, statusHandler{data: data})
	rh := promhttp.InstrumentHandlerResponseSize(data.metrics.resultResponseSize, resultHandler{data: data})
	router.Methods("POST").Path("/transcribe").Handler(th)
	router.Methods("GET").Path("/status/{id}").Handler(sh)
	router.Methods("GET").Path("/result/{id}/{format}").Handler(rh)
	router.Methods("POST").Path("/batch").Handler(batchHandler{data: data})
	router.Methods("GET").Path("/batch/{id}").Handler(batchStatusHandler{data: data})
	router.Methods("GET").Path("/batch/{id}/archive").Handler(batchArchiveHandler{data: data})
	if data.WSRegistry != nil {
		router.Handle("/subscribe", websocketHandler{data: data})
	}
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type transcribeHandler struct {
	data *ServiceData
}

func (h transcribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Transcribe request from %s", r.Host)

	var input api.TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Can't decode request", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	if input.Email != "" {
		if err := checkmail.ValidateFormat(input.Email); err != nil {
			http.Error(w, "Wrong email", http.StatusBadRequest)
			cmdapp.Log.Errorf("Wrong email")
			return
		}
	}
	key, err := fingerprint.New(input.URL, input.Mode, input.Lang)
	if err != nil {
		setError(w, err)
		cmdapp.Log.Error(err)
		return
	}

	j, created := h.data.Cache.GetOrCreate(key, func() *job.Job {
		return job.New(key, input.Email)
	})
	if created {
		if h.data.RequestSaver != nil {
			err = h.data.RequestSaver.Save(&api.RequestData{ID: j.ID(), URL: input.URL,
				VideoID: key.VideoID, Mode: string(key.Mode), Lang: key.Lang, Email: input.Email})
			if err != nil {
				cmdapp.Log.Error(err)
			}
		}
		h.data.Enqueuer.Enqueue(j)
	}

	sn := j.Snapshot()
	writeJSON(w, api.TranscribeResponse{ID: sn.ID, Fingerprint: key.String(),
		Status: job.Name(sn.Status), Cached: !created})
}

type statusHandler struct {
	data *ServiceData
}

func (h statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	j, found := h.data.Cache.Get(id)
	if !found {
		http.Error(w, "Cannot get status for ID: "+id, http.StatusNotFound)
		cmdapp.Log.Errorf("Cannot get status for ID: " + id)
		return
	}
	writeJSON(w, toResult(j.Snapshot()))
}

type resultHandler struct {
	data *ServiceData
}

func (h resultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	j, found := h.data.Cache.Get(id)
	if !found {
		http.Error(w, "Cannot get result for ID: "+id, http.StatusNotFound)
		return
	}
	sn := j.Snapshot()
	if sn.Status != job.Completed {
		http.Error(w, "Transcription not completed: "+job.Name(sn.Status), http.StatusConflict)
		return
	}
	format, ok := transcript.ParseFormat(mux.Vars(r)["format"])
	if !ok {
		http.Error(w, "Unknown format: "+mux.Vars(r)["format"], http.StatusBadRequest)
		return
	}
	data, err := h.data.Loader.Load(id, format)
	if err != nil {
		http.Error(w, "Cannot load result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+id+format.Ext())
	w.Write(data)
}

type batchHandler struct {
	data *ServiceData
}

func (h batchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Batch request from %s", r.Host)

	var input api.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Can't decode request", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	st, err := h.data.Batches.Submit(input.URLs, input.Mode, input.Lang)
	if err != nil {
		setError(w, err)
		cmdapp.Log.Error(err)
		return
	}
	writeJSON(w, st)
}

type batchStatusHandler struct {
	data *ServiceData
}

func (h batchStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st, err := h.data.Batches.Status(mux.Vars(r)["id"])
	if err != nil {
		setError(w, err)
		return
	}
	writeJSON(w, st)
}

type batchArchiveHandler struct {
	data *ServiceData
}

func (h batchArchiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.data.Batches.Archive(id)
	if err != nil {
		setError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+id+".zip")
	w.Write(data)
}

func toResult(sn job.Snapshot) api.TranscriptionResult {
	res := api.TranscriptionResult{ID: sn.ID, Status: job.Name(sn.Status),
		Progress: sn.Progress, ErrorCode: sn.ErrCode, Error: sn.Error}
	if sn.Status == job.Completed {
		for _, f := range transcript.Formats() {
			res.Formats = append(res.Formats, string(f))
		}
	}
	return res
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}

func setError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errCode(err))
}

func errCode(err error) int {
	switch errs.GetKind(err) {
	case errs.KindInvalidRequest:
		return http.StatusBadRequest
	case errs.KindNotAvailable:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
