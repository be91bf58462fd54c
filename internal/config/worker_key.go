package config

type WorkerKeyStruct struct {
	ReminderTagPrefix string
}

var WorkerKey = &WorkerKeyStruct{
	ReminderTagPrefix: "reminder:",
}
