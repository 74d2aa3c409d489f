package watchd_config

import (
	"time"

	"mangawatch/internal/obs"
	"mangawatch/internal/repository/gateway"
	pginfra "mangawatch/internal/repository/postgres"
	"mangawatch/internal/repository/upstream"
)

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type GatewayCfg struct {
	Kafka    KafkaCfg               `mapstructure:"kafka"`
	WhatsApp gateway.WhatsAppConfig `mapstructure:"whatsapp"`
}

// SchedCfg drives the due-event loop. Tolerance must stay below half
// the tick or an occurrence can fire on two adjacent ticks; Load clamps
// it and logs.
type SchedCfg struct {
	Tick       time.Duration `mapstructure:"tick"`
	Tolerance  time.Duration `mapstructure:"tolerance"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// MonitorCfg drives the chapter-poll loop.
type MonitorCfg struct {
	Tick        time.Duration `mapstructure:"tick"`
	MinFetchGap time.Duration `mapstructure:"min_fetch_gap"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
}

type ServerCfg struct {
	MetricsAddr  string        `mapstructure:"metrics_addr"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

type LogCfg struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	Env    string `mapstructure:"env"`
	Ver    string `mapstructure:"ver"`
}

func (l LogCfg) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  l.Level,
		Pretty: l.Pretty,
		App:    "watchd",
		Env:    l.Env,
		Ver:    l.Ver,
	}
}

type OTELCfg struct {
	Enable      bool    `mapstructure:"enable"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func (o OTELCfg) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      o.Enable,
		Endpoint:    o.Endpoint,
		ServiceName: "watchd",
		SampleRatio: o.SampleRatio,
	}
}

type Config struct {
	DB       pginfra.Config  `mapstructure:"db"`
	Upstream upstream.Config `mapstructure:"upstream"`
	Gateway  GatewayCfg      `mapstructure:"gateway"`
	Sched    SchedCfg        `mapstructure:"sched"`
	Monitor  MonitorCfg      `mapstructure:"monitor"`
	Server   ServerCfg       `mapstructure:"server"`
	Log      LogCfg          `mapstructure:"log"`
	OTEL     OTELCfg         `mapstructure:"otel"`
}
