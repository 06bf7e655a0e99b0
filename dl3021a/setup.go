package dl3021a

import "context"

// ConstCurrentSetup describes CC mode settings. Zero-valued fields are left
// untouched on the instrument.
type ConstCurrentSetup struct {
	Current      Param // regulated current
	Range        Param // current range
	Slew         Param // slew rate
	Von          Param // starting voltage
	VoltageLimit Param
	CurrentLimit Param
}

// SetupConstCurrent switches the load to CC mode and applies the given
// settings.
func (l *Load) SetupConstCurrent(ctx context.Context, setup ConstCurrentSetup) error {
	if err := l.sess.Write(ctx, ":SOURCE:FUNC CURR"); err != nil {
		return err
	}

	steps := []struct {
		cmd string
		p   Param
	}{
		{":SOURCE:CURRENT:LEVEL", setup.Current},
		{":SOURCE:CURRENT:RANGE", setup.Range},
		{":SOURCE:CURRENT:SLEW", setup.Slew},
		{":SOURCE:CURRENT:VON", setup.Von},
		{":SOURCE:CURRENT:VLIMT", setup.VoltageLimit},
		{":SOURCE:CURRENT:ILIMT", setup.CurrentLimit},
	}
	for _, s := range steps {
		if err := l.writeParam(ctx, s.cmd, s.p); err != nil {
			return err
		}
	}
	return nil
}

// ConstCurrentValues holds the CC mode settings read back from the
// instrument.
type ConstCurrentValues struct {
	Current      float64
	Range        float64
	Slew         float64
	Von          float64
	VoltageLimit float64
	CurrentLimit float64
}

// ConstCurrent queries the CC mode settings.
func (l *Load) ConstCurrent(ctx context.Context) (ConstCurrentValues, error) {
	var v ConstCurrentValues
	var err error

	for _, q := range []struct {
		cmd  string
		dest *float64
	}{
		{":SOURCE:CURRENT:LEVEL?", &v.Current},
		{":SOURCE:CURRENT:RANGE?", &v.Range},
		{":SOURCE:CURRENT:SLEW?", &v.Slew},
		{":SOURCE:CURRENT:VON?", &v.Von},
		{":SOURCE:CURRENT:VLIMT?", &v.VoltageLimit},
		{":SOURCE:CURRENT:ILIMT?", &v.CurrentLimit},
	} {
		if *q.dest, err = l.queryFloat(ctx, q.cmd); err != nil {
			return ConstCurrentValues{}, err
		}
	}
	return v, nil
}

// ConstVoltageSetup describes CV mode settings. Zero-valued fields are left
// untouched on the instrument.
type ConstVoltageSetup struct {
	Voltage      Param
	Range        Param
	VoltageLimit Param
	CurrentLimit Param
}

// SetupConstVoltage switches the load to CV mode and applies the given
// settings.
func (l *Load) SetupConstVoltage(ctx context.Context, setup ConstVoltageSetup) error {
	if err := l.sess.Write(ctx, ":SOURCE:FUNC VOLT"); err != nil {
		return err
	}

	steps := []struct {
		cmd string
		p   Param
	}{
		{":SOURCE:VOLTAGE:LEVEL", setup.Voltage},
		{":SOURCE:VOLTAGE:RANGE", setup.Range},
		{":SOURCE:VOLTAGE:VLIMT", setup.VoltageLimit},
		{":SOURCE:VOLTAGE:ILIMT", setup.CurrentLimit},
	}
	for _, s := range steps {
		if err := l.writeParam(ctx, s.cmd, s.p); err != nil {
			return err
		}
	}
	return nil
}

// ConstVoltageValues holds the CV mode settings read back from the
// instrument.
type ConstVoltageValues struct {
	Voltage      float64
	Range        float64
	VoltageLimit float64
	CurrentLimit float64
}

// ConstVoltage queries the CV mode settings.
func (l *Load) ConstVoltage(ctx context.Context) (ConstVoltageValues, error) {
	var v ConstVoltageValues
	var err error

	for _, q := range []struct {
		cmd  string
		dest *float64
	}{
		{":SOURCE:VOLTAGE:LEVEL?", &v.Voltage},
		{":SOURCE:VOLTAGE:RANGE?", &v.Range},
		{":SOURCE:VOLTAGE:VLIMT?", &v.VoltageLimit},
		{":SOURCE:VOLTAGE:ILIMT?", &v.CurrentLimit},
	} {
		if *q.dest, err = l.queryFloat(ctx, q.cmd); err != nil {
			return ConstVoltageValues{}, err
		}
	}
	return v, nil
}

// ConstResistanceSetup describes CR mode settings. Zero-valued fields are
// left untouched on the instrument.
type ConstResistanceSetup struct {
	Resistance   Param
	Range        Param
	VoltageLimit Param
	CurrentLimit Param
}

// SetupConstResistance switches the load to CR mode and applies the given
// settings.
func (l *Load) SetupConstResistance(ctx context.Context, setup ConstResistanceSetup) error {
	if err := l.sess.Write(ctx, ":SOURCE:FUNC RES"); err != nil {
		return err
	}

	steps := []struct {
		cmd string
		p   Param
	}{
		{":SOURCE:RESISTANCE:LEVEL", setup.Resistance},
		{":SOURCE:RESISTANCE:RANGE", setup.Range},
		{":SOURCE:RESISTANCE:VLIMT", setup.VoltageLimit},
		{":SOURCE:RESISTANCE:ILIMT", setup.CurrentLimit},
	}
	for _, s := range steps {
		if err := l.writeParam(ctx, s.cmd, s.p); err != nil {
			return err
		}
	}
	return nil
}

// ConstResistanceValues holds the CR mode settings read back from the
// instrument.
type ConstResistanceValues struct {
	Resistance   float64
	Range        float64
	VoltageLimit float64
	CurrentLimit float64
}

// ConstResistance queries the CR mode settings.
func (l *Load) ConstResistance(ctx context.Context) (ConstResistanceValues, error) {
	var v ConstResistanceValues
	var err error

	for _, q := range []struct {
		cmd  string
		dest *float64
	}{
		{":SOURCE:RESISTANCE:LEVEL?", &v.Resistance},
		{":SOURCE:RESISTANCE:RANGE?", &v.Range},
		{":SOURCE:RESISTANCE:VLIMT?", &v.VoltageLimit},
		{":SOURCE:RESISTANCE:ILIMT?", &v.CurrentLimit},
	} {
		if *q.dest, err = l.queryFloat(ctx, q.cmd); err != nil {
			return ConstResistanceValues{}, err
		}
	}
	return v, nil
}

// ConstPowerSetup describes CP mode settings. Zero-valued fields are left
// untouched on the instrument.
type ConstPowerSetup struct {
	Power        Param
	VoltageLimit Param
	CurrentLimit Param
}

// SetupConstPower switches the load to CP mode and applies the given
// settings.
func (l *Load) SetupConstPower(ctx context.Context, setup ConstPowerSetup) error {
	if err := l.sess.Write(ctx, ":SOURCE:FUNC POW"); err != nil {
		return err
	}

	steps := []struct {
		cmd string
		p   Param
	}{
		{":SOURCE:POWER:LEVEL", setup.Power},
		{":SOURCE:POWER:VLIMT", setup.VoltageLimit},
		{":SOURCE:POWER:ILIMT", setup.CurrentLimit},
	}
	for _, s := range steps {
		if err := l.writeParam(ctx, s.cmd, s.p); err != nil {
			return err
		}
	}
	return nil
}

// ConstPowerValues holds the CP mode settings read back from the
// instrument.
type ConstPowerValues struct {
	Power        float64
	VoltageLimit float64
	CurrentLimit float64
}

// ConstPower queries the CP mode settings.
func (l *Load) ConstPower(ctx context.Context) (ConstPowerValues, error) {
	var v ConstPowerValues
	var err error

	for _, q := range []struct {
		cmd  string
		dest *float64
	}{
		{":SOURCE:POWER:LEVEL?", &v.Power},
		{":SOURCE:POWER:VLIMT?", &v.VoltageLimit},
		{":SOURCE:POWER:ILIMT?", &v.CurrentLimit},
	} {
		if *q.dest, err = l.queryFloat(ctx, q.cmd); err != nil {
			return ConstPowerValues{}, err
		}
	}
	return v, nil
}
