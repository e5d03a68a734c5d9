package service

import "errors"

var (
	ErrNoVehicle = errors.New("no vehicle location saved")
)
