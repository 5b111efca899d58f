package launch

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/environ"
)

const (
	loggerNotConfiguredMessageConstant   = "logger not configured"
	starterNotConfiguredMessageConstant  = "command starter not configured"
	templateMissingMessageConstant       = "command template must not be empty"
	placeholderMissingTemplateConstant   = "command template %q is missing the %s placeholder"
	pathPlaceholderConstant              = "{path}"
	nativeShellProgramConstant           = "sh"
	nativeShellCommandFlagConstant       = "-c"
	guestBridgeProgramConstant           = "wsl.exe"
	guestDistributionFlagConstant        = "-d"
	guestArgumentSeparatorConstant       = "--"
	launchedMessageConstant              = "launched external program"
	launchFailedMessageConstant          = "external program failed to launch"
	commandLineLogFieldNameConstant      = "command_line"
)

// Initialization validation errors.
var (
	ErrLoggerNotConfigured  = errors.New(loggerNotConfiguredMessageConstant)
	ErrStarterNotConfigured = errors.New(starterNotConfiguredMessageConstant)
)

// CommandStarter starts a process without waiting for it to finish.
type CommandStarter interface {
	Start(program string, arguments []string) error
}

// OSCommandStarter starts detached processes using os/exec.
type OSCommandStarter struct{}

// Start launches the program and returns once it has spawned.
func (OSCommandStarter) Start(program string, arguments []string) error {
	return exec.Command(program, arguments...).Start()
}

// Launcher substitutes repository paths into command templates and spawns them.
type Launcher struct {
	logger  *zap.Logger
	starter CommandStarter
}

// NewLauncher validates collaborators and constructs a Launcher.
func NewLauncher(logger *zap.Logger, starter CommandStarter) (*Launcher, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if starter == nil {
		return nil, ErrStarterNotConfigured
	}
	return &Launcher{logger: logger, starter: starter}, nil
}

// RenderTemplate substitutes the quoted target path into the command template.
func RenderTemplate(commandTemplate string, targetPath string) (string, error) {
	trimmedTemplate := strings.TrimSpace(commandTemplate)
	if len(trimmedTemplate) == 0 {
		return "", errors.New(templateMissingMessageConstant)
	}
	if !strings.Contains(trimmedTemplate, pathPlaceholderConstant) {
		return "", fmt.Errorf(placeholderMissingTemplateConstant, trimmedTemplate, pathPlaceholderConstant)
	}
	return strings.ReplaceAll(trimmedTemplate, pathPlaceholderConstant, environ.QuoteForPOSIXShell(targetPath)), nil
}

// LaunchNative runs the rendered template through the host shell, fire-and-forget.
func (launcher *Launcher) LaunchNative(commandTemplate string, targetPath string) error {
	renderedLine, renderError := RenderTemplate(commandTemplate, targetPath)
	if renderError != nil {
		return renderError
	}
	return launcher.start(nativeShellProgramConstant, []string{nativeShellCommandFlagConstant, renderedLine})
}

// LaunchInGuest routes the rendered template through the guest bridge, fire-and-forget.
func (launcher *Launcher) LaunchInGuest(guestIdentifier string, commandTemplate string, targetPath string) error {
	renderedLine, renderError := RenderTemplate(commandTemplate, targetPath)
	if renderError != nil {
		return renderError
	}
	bridgeArguments := []string{
		guestDistributionFlagConstant,
		guestIdentifier,
		guestArgumentSeparatorConstant,
		nativeShellProgramConstant,
		nativeShellCommandFlagConstant,
		renderedLine,
	}
	return launcher.start(guestBridgeProgramConstant, bridgeArguments)
}

func (launcher *Launcher) start(program string, arguments []string) error {
	commandLine := program + " " + strings.Join(arguments, " ")
	startError := launcher.starter.Start(program, arguments)
	if startError != nil {
		launcher.logger.Warn(launchFailedMessageConstant, zap.String(commandLineLogFieldNameConstant, commandLine), zap.Error(startError))
		return startError
	}
	launcher.logger.Info(launchedMessageConstant, zap.String(commandLineLogFieldNameConstant, commandLine))
	return nil
}
