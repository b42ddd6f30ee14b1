package annotator

import (
	"errors"

	"github.com/3DRX/point-normal-annotator/cloud"
)

type tee []Sink

// Tee returns a Sink that publishes to every sink in order.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) PublishCloud(c *cloud.AnnotatedCloud) error {
	var errs []error
	for _, s := range t {
		if err := s.PublishCloud(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) PublishMarker(m *cloud.Marker) error {
	var errs []error
	for _, s := range t {
		if err := s.PublishMarker(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
