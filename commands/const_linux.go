package commands

const (
	_etc = "/usr/local/etc/uhppoted"
	_var = "/usr/local/var/uhppoted"

	DEFAULT_WORKDIR     = _var + "/forms"
	DEFAULT_CREDENTIALS = _etc + "/forms/.google/credentials.json"
	DEFAULT_FORMS       = _etc + "/forms/forms.yaml"
)
