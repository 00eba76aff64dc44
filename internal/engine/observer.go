package engine

import (
	"time"

	"github.com/vk/hookbind/internal/annotation"
)

// Observer receives engine events, e.g. for metrics.
type Observer interface {
	AnnotationApplied(kind string, target annotation.Target)
	CapabilitySkipped(kind string)
	AttachFinished(typeName string, took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) AnnotationApplied(string, annotation.Target) {}
func (nopObserver) CapabilitySkipped(string)                    {}
func (nopObserver) AttachFinished(string, time.Duration, error) {}
