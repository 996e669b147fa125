package observability

import (
	crerr "github.com/cockroachdb/errors"
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/goal-alerts/internal/config"
	"github.com/riskibarqy/goal-alerts/internal/platform/logging"
)

// InitPyroscope starts continuous profiling. The returned stop func is safe to
// call when profiling is disabled.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	tel := cfg.Telemetry
	if !tel.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   tel.PyroscopeAppName,
		ServerAddress:     tel.PyroscopeServerAddress,
		AuthToken:         tel.PyroscopeAuthToken,
		BasicAuthUser:     tel.PyroscopeBasicAuthUser,
		BasicAuthPassword: tel.PyroscopeBasicAuthPassword,
		UploadRate:        tel.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":      cfg.AppEnv,
			"service":  cfg.ServiceName,
			"provider": cfg.Provider.Name,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, crerr.Wrap(err, "start pyroscope profiler")
	}

	logger.Info("pyroscope enabled",
		"server_address", tel.PyroscopeServerAddress,
		"application", tel.PyroscopeAppName,
	)

	return profiler.Stop, nil
}
