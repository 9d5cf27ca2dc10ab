package config

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
	Media       Media         `yaml:"media"`
	Upload      Upload        `yaml:"upload"`
}

type App struct {
	Environment string `yaml:"environment"`
}

type Server struct {
	HttpPort  string `yaml:"http_port"`
	AdminPort string `yaml:"admin_port"`

	// Workers bounds concurrent transcode subprocesses.
	Workers int `yaml:"workers"`

	// QueueWait is how long an upload may wait for a free transcode slot
	// before being rejected with a capacity error.
	QueueWait time.Duration `yaml:"queue_wait"`
}

type RabbitMQ struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Media struct {
	FFprobePath      string        `yaml:"ffprobe_path"`
	FFmpegPath       string        `yaml:"ffmpeg_path"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout"`

	// Canonical target encoding all stored recordings are normalized to.
	CanonicalContainer string `yaml:"canonical_container"`
	CanonicalCodec     string `yaml:"canonical_codec"`
}

type Upload struct {
	PublicBaseURL      string `yaml:"public_base_url"`
	RecordingsPrefix   string `yaml:"recordings_prefix"`
	ACL                string `yaml:"acl"`
	CacheControl       string `yaml:"cache_control"`
	MaxBytes           int64  `yaml:"max_bytes"`
	TokensPerRecording int    `yaml:"tokens_per_recording"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	viper.SetDefault("server.workers", 4)
	viper.SetDefault("server.queue_wait", "2s")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.probe_timeout", "10s")
	viper.SetDefault("media.transcode_timeout", "2m")
	viper.SetDefault("media.canonical_container", "ogg")
	viper.SetDefault("media.canonical_codec", "opus")
	viper.SetDefault("upload.recordings_prefix", "recordings")
	viper.SetDefault("upload.acl", "public-read")
	viper.SetDefault("upload.cache_control", "public, max-age=31536000")
	viper.SetDefault("upload.max_bytes", int64(100<<20))
	viper.SetDefault("upload.tokens_per_recording", 3)

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Enabled:      viper.GetBool("rabbitmq_enabled"),
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		ExchangeName: viper.GetString("rabbitmq_exchange"),
		Kind:         viper.GetString("rabbitmq_kind"),
	}

	minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
		Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
		Secure: viper.GetBool("minio.secure"),
		Region: viper.GetString("minio.region"),
	})
	if err != nil {
		return nil, err
	}

	return &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
		},
		Server: Server{
			HttpPort:  viper.GetString("server.port"),
			AdminPort: viper.GetString("server.admin_port"),
			Workers:   viper.GetInt("server.workers"),
			QueueWait: viper.GetDuration("server.queue_wait"),
		},
		Media: Media{
			FFprobePath:        viper.GetString("media.ffprobe_path"),
			FFmpegPath:         viper.GetString("media.ffmpeg_path"),
			ProbeTimeout:       viper.GetDuration("media.probe_timeout"),
			TranscodeTimeout:   viper.GetDuration("media.transcode_timeout"),
			CanonicalContainer: viper.GetString("media.canonical_container"),
			CanonicalCodec:     viper.GetString("media.canonical_codec"),
		},
		Upload: Upload{
			PublicBaseURL:      viper.GetString("upload.public_base_url"),
			RecordingsPrefix:   viper.GetString("upload.recordings_prefix"),
			ACL:                viper.GetString("upload.acl"),
			CacheControl:       viper.GetString("upload.cache_control"),
			MaxBytes:           viper.GetInt64("upload.max_bytes"),
			TokensPerRecording: viper.GetInt("upload.tokens_per_recording"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}, nil
}
