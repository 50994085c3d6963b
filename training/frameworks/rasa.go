package frameworks

import (
	"fmt"
	"strconv"
)

// Engine paths on the local control endpoint
const (
	HealthPath = "/"
	TrainPath  = "/model/train"

	// TrainContentType is the media type of the training config request body
	TrainContentType = "application/yaml"

	// RemoteStorageAWS selects S3 as the engine's model source
	RemoteStorageAWS = "aws"
)

// RasaSetup builds command lines for the Rasa serving engine
type RasaSetup struct {
	Bin    string
	Port   int
	Debug  bool
	Region string
	Bucket string
}

// ServeOptions configures a foreground model server
type ServeOptions struct {
	ModelRef        string
	EndpointsFile   string // optional
	CredentialsFile string // optional
}

// TrainingServer returns the background API server used for training.
// It binds to the given port and exposes the HTTP training endpoint.
func (r *RasaSetup) TrainingServer() (*LaunchConfig, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	return &LaunchConfig{
		Bin:         r.Bin,
		Args:        r.withDebug([]string{"run", "--enable-api", "--port", strconv.Itoa(r.Port)}),
		Environment: map[string]string{},
	}, nil
}

// ModelServer returns the foreground server that loads its model from remote storage
func (r *RasaSetup) ModelServer(opts ServeOptions) (*LaunchConfig, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if opts.ModelRef == "" {
		return nil, fmt.Errorf("model reference is required")
	}

	args := []string{
		"run",
		"--enable-api",
		"--port", strconv.Itoa(r.Port),
		"--remote-storage", RemoteStorageAWS,
		"--model", opts.ModelRef,
	}
	if opts.EndpointsFile != "" {
		args = append(args, "--endpoints", opts.EndpointsFile)
	}
	if opts.CredentialsFile != "" {
		args = append(args, "--credentials", opts.CredentialsFile)
	}

	return &LaunchConfig{
		Bin:         r.Bin,
		Args:        r.withDebug(args),
		Environment: r.storageEnvironment(),
	}, nil
}

func (r *RasaSetup) validate() error {
	if r.Bin == "" {
		return fmt.Errorf("engine binary is not configured")
	}
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("invalid engine port %d", r.Port)
	}
	return nil
}

func (r *RasaSetup) withDebug(args []string) []string {
	if r.Debug {
		return append(args, "--debug")
	}
	return args
}

// storageEnvironment returns the variables the engine's S3 model store reads
func (r *RasaSetup) storageEnvironment() map[string]string {
	env := map[string]string{}
	if r.Bucket != "" {
		env["BUCKET_NAME"] = r.Bucket
	}
	if r.Region != "" {
		env["AWS_DEFAULT_REGION"] = r.Region
	}
	return env
}
