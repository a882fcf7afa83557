package store

import (
	"encoding/json"
	"errors"

	"github.com/idlab-discover/tinynas-cli/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp returns the version header for newly written records.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.Run) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.Run, error) {
	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.Run{}, err
	}
	return run, nil
}

func EncodeTrial(t model.Trial) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTrial(data []byte) (model.Trial, error) {
	var trial model.Trial
	if err := json.Unmarshal(data, &trial); err != nil {
		return model.Trial{}, err
	}
	if err := checkVersion(trial.VersionedRecord); err != nil {
		return model.Trial{}, err
	}
	return trial, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
