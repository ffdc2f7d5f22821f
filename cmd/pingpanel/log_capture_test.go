package main

import (
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogInterceptor(t *testing.T) {
	li := &logInterceptor{keep: 2}

	for i := 0; i < 3; i++ {
		fmt.Fprintf(li, "line %d\n", i)
	}

	assert.Equal(t, []string{"line 1", "line 2"}, li.Messages())
}

func TestStdLogger(t *testing.T) {
	li := &logInterceptor{keep: 10}
	log.SetOutput(li)
	defer log.SetOutput(os.Stderr)

	flags := log.Flags()
	log.SetFlags(0)
	defer log.SetFlags(flags)

	var l stdLogger
	l.Infof("target %s: created", "x")
	l.Errorf("unable to write")

	assert.Equal(t, []string{"target x: created", "error: unable to write"}, li.Messages())
}
