package commands

const (
	_programdata = `C:\ProgramData\uhppoted`

	DEFAULT_WORKDIR     = _programdata + `\forms`
	DEFAULT_CREDENTIALS = _programdata + `\forms\.google\credentials.json`
	DEFAULT_FORMS       = _programdata + `\forms\forms.yaml`
)
