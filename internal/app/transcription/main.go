package transcription

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/heptiolabs/healthcheck"

	"github.com/grihenrik/videotranscribe/internal/pkg/batch"
	"github.com/grihenrik/videotranscribe/internal/pkg/cache"
	"github.com/grihenrik/videotranscribe/internal/pkg/captions"
	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/hub"
	"github.com/grihenrik/videotranscribe/internal/pkg/inform"
	"github.com/grihenrik/videotranscribe/internal/pkg/media"
	"github.com/grihenrik/videotranscribe/internal/pkg/metrics"
	"github.com/grihenrik/videotranscribe/internal/pkg/mongo"
	"github.com/grihenrik/videotranscribe/internal/pkg/pipeline"
	"github.com/grihenrik/videotranscribe/internal/pkg/rabbit"
	"github.com/grihenrik/videotranscribe/internal/pkg/saver"
	"github.com/grihenrik/videotranscribe/internal/pkg/speech"
	"github.com/grihenrik/videotranscribe/internal/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "transcriptionService",
	Short: "Video Transcription Service",
	Long:  `HTTP server to transcribe videos from captions or speech recognition`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8000)
	cmdapp.Config.SetDefault("workers.count", 4)
	cmdapp.Config.SetDefault("cache.ttl", 24*time.Hour)
	cmdapp.Config.SetDefault("cache.sweepInterval", 10*time.Minute)
	cmdapp.Config.SetDefault("timeout.extract", 30*time.Second)
	cmdapp.Config.SetDefault("timeout.download", 10*time.Minute)
	cmdapp.Config.SetDefault("timeout.transcribe", 30*time.Minute)
	cmdapp.Config.SetDefault("timeout.finalize", 30*time.Second)
	cmdapp.Config.SetDefault("fileStorage.path", "/data/results/")
	cmdapp.Config.SetDefault("media.dir", "/data/audio/")
}

// Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting transcriptionService")
	data := &ServiceData{}
	err := initMetrics(data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")

	data.health = healthcheck.NewHandler()

	store, err := saver.NewLocalArtifactStore(cmdapp.Config.GetString("fileStorage.path"))
	cmdapp.CheckOrPanic(err, "Can't init file storage")
	data.Loader = store
	data.health.AddLivenessCheck("fs", store.HealthyFunc())

	extractor, err := captions.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init caption extractor")

	downloader, err := media.NewDownloader(cmdapp.Config.GetString("media.dir"))
	cmdapp.CheckOrPanic(err, "Can't init audio downloader")

	transcriber, err := speech.NewClient()
	cmdapp.CheckOrPanic(err, "Can't init speech client")

	eventHub := hub.NewHub()

	data.Cache, err = cache.NewJobCache(cmdapp.Config.GetDuration("cache.ttl"))
	cmdapp.CheckOrPanic(err, "Can't init job cache")
	sweep := cache.StartSweepTimer(data.Cache, cmdapp.Config.GetDuration("cache.sweepInterval"))
	defer sweep.Stop()

	fc := utils.NewSignalChannel()
	defer fc.Close()
	go func() {
		<-fc.C
		cmdapp.Log.Info("Stopping cache sweep on shutdown")
		sweep.Stop()
	}()

	executor, err := pipeline.NewExecutor(&pipeline.ServiceData{
		Extractor:   extractor,
		Downloader:  downloader,
		Transcriber: transcriber,
		Saver:       store,
		EventHub:    eventHub,
		Workers:     cmdapp.Config.GetInt("workers.count"),
		Timeouts: pipeline.StageTimeouts{
			Extract:    cmdapp.Config.GetDuration("timeout.extract"),
			Download:   cmdapp.Config.GetDuration("timeout.download"),
			Transcribe: cmdapp.Config.GetDuration("timeout.transcribe"),
			Finalize:   cmdapp.Config.GetDuration("timeout.finalize"),
		},
	})
	cmdapp.CheckOrPanic(err, "Can't init pipeline executor")
	data.Enqueuer = executor

	data.Batches, err = batch.NewOrchestrator(data.Cache, executor, store, eventHub)
	cmdapp.CheckOrPanic(err, "Can't init batch orchestrator")

	data.WSRegistry = NewWSRegistry()
	eventHub.AddListener(data.WSRegistry.Listener())

	if cmdapp.Config.GetString("mongo.url") != "" {
		mongoSessionProvider, err := mongo.NewSessionProvider()
		cmdapp.CheckOrPanic(err, "Can't init mongo")
		defer mongoSessionProvider.Close()
		data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))

		data.RequestSaver, err = mongo.NewRequestSaver(mongoSessionProvider)
		cmdapp.CheckOrPanic(err, "Can't init request saver")

		statusSaver, err := mongo.NewStatusSaver(mongoSessionProvider)
		cmdapp.CheckOrPanic(err, "Can't init status saver")
		eventHub.AddListener(statusSaver.Listener())
	}

	if cmdapp.Config.GetString("messageServer.url") != "" {
		msgChannelProvider, err := rabbit.NewChannelProvider()
		cmdapp.CheckOrPanic(err, "Can't init rabbit channel")
		defer msgChannelProvider.Close()
		data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))

		eventHub.AddListener(rabbit.NewEventPublisher(msgChannelProvider).Listener())
	}

	if cmdapp.Config.GetString("smtp.host") != "" {
		emailMaker, err := inform.NewSimpleEmailMaker(cmdapp.Config)
		cmdapp.CheckOrPanic(err, "Can't init email maker")
		emailSender, err := inform.NewSimpleEmailSender()
		cmdapp.CheckOrPanic(err, "Can't init email sender")
		notifier, err := inform.NewNotifier(emailMaker, emailSender)
		cmdapp.CheckOrPanic(err, "Can't init notifier")
		eventHub.AddListener(notifier.Listener())
	}

	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initMetrics(data *ServiceData) error {
	namespace := "transcription_service"
	data.metrics.transcribeResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_request_durations_seconds",
			Help:      "Transcribe request latency distributions.",
		}, nil)
	err := metrics.Register(data.metrics.transcribeResponseDur)
	if err != nil {
		return err
	}
	data.metrics.statusResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_request_durations_seconds",
			Help:      "Status request latency distributions.",
		}, nil)
	err = metrics.Register(data.metrics.statusResponseDur)
	if err != nil {
		return err
	}
	data.metrics.resultResponseSize = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "result_response_size_bytes",
			Help:      "Result response size in bytes."}, nil)
	return metrics.Register(data.metrics.resultResponseSize)
}
