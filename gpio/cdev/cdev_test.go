package cdev_test

import (
	"testing"

	"github.com/clktmr/pcebridge/gpio/cdev"
)

func TestOpenMissing(t *testing.T) {
	if _, err := cdev.Open("gpiochip-missing"); err == nil {
		t.Fatal("opened missing chip")
	}
}
