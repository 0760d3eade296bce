package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// batchFile is the root document of a batch file:
//
//	batches:
//	  - name: checkout
//	    frequency: 24
//	    seasonal: multiplicative
//	    horizon: 24h
//	    step: 1h
//	    window: 336h
//	    quantiles: [p10, p90]
//	    series:
//	      - name: rps
//	        adapter: prometheus
//	        config:
//	          url: http://prometheus:9090
//	          query: sum(rate(http_requests_total[5m]))
//
// Series config keys are snake_case (value_path, timestamp_format) and are
// handed to the adapter in lowerCamelCase, the same as ADAPTER_* variables.
type batchFile struct {
	Batches []BatchConfig `mapstructure:"batches"`
}

// LoadBatchFile reads and validates a batch file. The format follows the
// file extension.
func LoadBatchFile(path string) ([]BatchConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	var file batchFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decode batch file: %w", err)
	}
	if len(file.Batches) == 0 {
		return nil, fmt.Errorf("batch file %s: no batches defined", path)
	}

	seen := make(map[string]bool, len(file.Batches))
	for i := range file.Batches {
		b := &file.Batches[i]
		for j := range b.Series {
			b.Series[j].Config = camelKeys(b.Series[j].Config)
		}
		if err := validateBatch(b, i); err != nil {
			return nil, err
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("duplicate batch name %q", b.Name)
		}
		seen[b.Name] = true
	}
	return file.Batches, nil
}

func camelKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[toLowerCamelCase(k)] = v
	}
	return out
}
